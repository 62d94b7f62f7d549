package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FollowOption configures Follow.
type FollowOption func(*follower)

// FromStart copies the file's existing content before following it.
// By default Follow starts at the current end of the file.
func FromStart() FollowOption {
	return func(f *follower) {
		f.fromStart = true
	}
}

// WithFollowLogger sets the logger for rotation and watch errors.
func WithFollowLogger(logger *slog.Logger) FollowOption {
	return func(f *follower) {
		f.logger = logger
	}
}

type follower struct {
	w         io.Writer
	logger    *slog.Logger
	file      *os.File
	path      string
	offset    int64
	fromStart bool
}

// Follow copies data appended to the file at path into w until ctx is
// cancelled, like tail -F. A truncated file is read again from the start;
// a removed or renamed file is reopened when a file with the same name
// appears. Follow returns ctx.Err() on cancellation.
func Follow(ctx context.Context, path string, w io.Writer, opts ...FollowOption) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	f := &follower{path: path, w: w, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.open(f.fromStart); err != nil {
		return err
	}
	defer f.close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file so rotation is observed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	// Content written between open and Add has no event of its own.
	if err := f.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("follow: watcher error", "path", path, "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if err := f.handle(ev); err != nil {
				return err
			}
		}
	}
}

func (f *follower) handle(ev fsnotify.Event) error {
	switch {
	case ev.Has(fsnotify.Create):
		f.logger.Debug("follow: file recreated", "path", f.path)
		f.close()
		if err := f.open(true); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return f.drain()
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		f.logger.Debug("follow: file moved away", "path", f.path, "op", ev.Op.String())
		if err := f.drain(); err != nil {
			return err
		}
		f.close()
		return nil
	case ev.Has(fsnotify.Write):
		return f.drain()
	}
	return nil
}

func (f *follower) open(fromStart bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return fmt.Errorf("follow %s: %w", f.path, ErrNotRegular)
	}
	f.file = file
	f.offset = 0
	if !fromStart {
		f.offset = info.Size()
	}
	return nil
}

func (f *follower) close() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
}

// drain copies everything between the current offset and the end of the
// file.
func (f *follower) drain() error {
	if f.file == nil {
		return nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() < f.offset {
		f.logger.Debug("follow: file truncated", "path", f.path, "size", info.Size(), "offset", f.offset)
		f.offset = 0
	}
	if info.Size() == f.offset {
		return nil
	}
	n, err := io.Copy(f.w, io.NewSectionReader(f.file, f.offset, info.Size()-f.offset))
	f.offset += n
	if err != nil {
		return fmt.Errorf("follow %s: %w", f.path, err)
	}
	return nil
}
