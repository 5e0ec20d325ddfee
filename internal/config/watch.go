package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModified returns a context that is cancelled when any of the target
// files is written, created, removed, or renamed. The server uses it to
// reload the scenario file and swap a fresh scene snapshot into the engine.
//
// The returned cancel function releases the watcher; callers must invoke it.
func UntilModified(ctx context.Context, paths ...string) (context.Context, context.CancelFunc, error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("config: %s modified (%s)", event.Name, event.Op))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("config: watch failed: %w", err))
			}
		}
	}()

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			cancel(err)
			return nil, nil, err
		}
	}
	return cctx, func() { cancel(nil) }, nil
}
