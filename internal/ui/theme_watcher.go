package ui

import (
	"context"
	"log/slog"
	"sync"

	dark "github.com/thiagokokada/dark-mode-go"
)

// ThemeWatcher follows the OS dark mode setting while the browser runs.
// It is only started when the configured theme is "system".
type ThemeWatcher struct {
	updates chan bool // true=dark, false=light
	cancel  context.CancelFunc
	once    sync.Once
}

// NewThemeWatcher starts watching the OS appearance. It returns nil when the
// platform offers no dark mode notifications, and the caller keeps the theme
// it resolved at startup.
func NewThemeWatcher(parentCtx context.Context) *ThemeWatcher {
	ctx, cancel := context.WithCancel(parentCtx)

	events, errs, err := dark.WatchDarkMode(ctx)
	if err != nil {
		cancel()
		uiLog.Warn("theme watcher init failed", slog.String("error", err.Error()))
		return nil
	}

	tw := &ThemeWatcher{
		updates: make(chan bool, 1),
		cancel:  cancel,
	}
	go tw.forward(ctx, events, errs)
	return tw
}

// forward relays appearance flips into the updates channel. When the consumer
// lags, the pending value is replaced rather than queued, so a read always
// yields the newest state.
func (tw *ThemeWatcher) forward(ctx context.Context, events <-chan bool, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case isDark, ok := <-events:
			if !ok {
				return
			}
			select {
			case tw.updates <- isDark:
			default:
				select {
				case <-tw.updates:
				default:
				}
				select {
				case tw.updates <- isDark:
				default:
				}
			}
		case err, ok := <-errs:
			if ok && err != nil {
				uiLog.Warn("theme watch error", slog.String("error", err.Error()))
			}
		}
	}
}

// ChangeChannel delivers dark mode flips, true meaning dark. Only the most
// recent flip is retained.
func (tw *ThemeWatcher) ChangeChannel() <-chan bool {
	return tw.updates
}

// Close stops the watcher. Safe to call more than once.
func (tw *ThemeWatcher) Close() {
	tw.once.Do(tw.cancel)
}
