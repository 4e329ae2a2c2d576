package storage

import (
	"context"
	"errors"
	"sync"

	"musicapp/logger"
)

// Lease owns the files one operation stages and retires. A lease ends with
// exactly one of Commit or Rollback; later calls are no-ops.
//
// Rollback discards every staged file. Commit keeps them and discards the
// retired ones instead, so a replaced file disappears only once its
// replacement is durably referenced.
type Lease struct {
	stage *Stage

	mu      sync.Mutex
	staged  []*StoredFile
	retired []string
	done    bool
}

// Stage stores up and takes ownership of the resulting file.
func (l *Lease) Stage(ctx context.Context, bucket Bucket, up Upload) (*StoredFile, error) {
	f, err := l.stage.Store(ctx, bucket, up)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.staged = append(l.staged, f)
	l.mu.Unlock()
	return f, nil
}

// Retire schedules publicPath for removal on Commit.
func (l *Lease) Retire(publicPath string) {
	if publicPath == "" || IsDefaultCover(publicPath) {
		return
	}
	l.mu.Lock()
	l.retired = append(l.retired, publicPath)
	l.mu.Unlock()
}

// Staged returns the files staged so far.
func (l *Lease) Staged() []*StoredFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*StoredFile(nil), l.staged...)
}

// Commit keeps the staged files and discards the retired ones. Discard
// failures are logged and returned joined; the staged files stay either way.
func (l *Lease) Commit(ctx context.Context) error {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return nil
	}
	l.done = true
	retired := l.retired
	l.mu.Unlock()

	return l.discard(context.WithoutCancel(ctx), retired, "commit")
}

// Rollback discards every staged file. It is safe to defer right after
// Begin.
func (l *Lease) Rollback(ctx context.Context) error {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return nil
	}
	l.done = true
	paths := make([]string, 0, len(l.staged))
	for _, f := range l.staged {
		paths = append(paths, f.Path)
	}
	l.mu.Unlock()

	return l.discard(context.WithoutCancel(ctx), paths, "rollback")
}

func (l *Lease) discard(ctx context.Context, paths []string, phase string) error {
	var errs []error
	for _, p := range paths {
		if err := l.stage.Discard(ctx, p); err != nil {
			logger.Error("Failed to discard file",
				logger.String("phase", phase),
				logger.String("path", p),
				logger.ErrorField(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
