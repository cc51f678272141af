// Package keyfile loads bearer keys from a file and reloads them on change.
//
// The format is one key per line. Blank lines and lines starting with '#'
// are ignored; surrounding whitespace is trimmed.
package keyfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var ErrEmpty = errors.New("keyfile: no keys")

// Load reads the keys in path.
func Load(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: %w", err)
	}
	return Parse(b)
}

// Parse extracts keys from file contents.
func Parse(b []byte) ([]string, error) {
	var keys []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("keyfile: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrEmpty
	}
	return keys, nil
}

// debounce collapses the burst of events editors emit for one save.
const debounce = 100 * time.Millisecond

// Watch calls onChange with the reloaded keys each time path is written,
// created or renamed into place. It watches the parent directory so atomic
// replace-by-rename is seen. A file that fails to load is logged and the
// previous keys stay in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func([]string)) error {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("keyfile: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("keyfile: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("keyfile: watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("keyfile watch error", zap.String("path", abs), zap.Error(err))
		case <-timer.C:
			keys, err := Load(abs)
			if err != nil {
				log.Error("keyfile reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			log.Info("keyfile reloaded", zap.String("path", abs), zap.Int("keys", len(keys)))
			onChange(keys)
		}
	}
}
