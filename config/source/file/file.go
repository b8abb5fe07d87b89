package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/encoding"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/pkg/routine"
)

// File reads one config file. Its format comes from the extension.
type File struct {
	path   string
	format string
	notify chan struct{}
	once   sync.Once
	closed chan struct{}
	close  sync.Once
}

func NewFile(path string) *File {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &File{
		path:   path,
		format: encoding.FormatOf(path),
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (f *File) Load() (config.Document, error) {
	data, err := os.ReadFile(f.path)
	return config.Document{Format: f.format, Data: data}, err
}

// Watch starts watching the file's directory on first call.
func (f *File) Watch() <-chan struct{} {
	f.once.Do(func() {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Log(context.Background(), logger.ErrorLevel, map[string]interface{}{"error": err}, "file watcher")
			close(f.notify)
			return
		}
		if err = w.Add(filepath.Dir(f.path)); err != nil {
			logger.Log(context.Background(), logger.ErrorLevel, map[string]interface{}{"error": err, "path": f.path}, "file watch")
			_ = w.Close()
			close(f.notify)
			return
		}
		routine.GoSafe(context.Background(), func() {
			f.watch(w)
		})
	})
	return f.notify
}

func (f *File) watch(w *fsnotify.Watcher) {
	defer close(f.notify)
	defer w.Close()
	// only writes to or creation of the file itself, not its neighbours
	const writeOrCreateMask = fsnotify.Write | fsnotify.Create
	for {
		select {
		case <-f.closed:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&writeOrCreateMask == 0 || filepath.Clean(event.Name) != f.path {
				continue
			}
			logger.Log(context.Background(), logger.DebugLevel, map[string]interface{}{"file": event.Name}, "file modify")
			select {
			case f.notify <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Log(context.Background(), logger.ErrorLevel, map[string]interface{}{"error": err}, "file watch error")
		}
	}
}

func (f *File) Close() error {
	f.close.Do(func() {
		close(f.closed)
	})
	return nil
}
