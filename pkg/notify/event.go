package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/snapwatch/snapwatch/pkg/logger"
)

// registration is one WatchPath call.
//
// For directory roots target is empty and every path under root is
// delivered. For file roots the parent directory is watched and
// target holds the exact path deliveries are filtered to.
type registration struct {
	root    string
	target  string
	handler Handler
}

// eventNotifier implements Notifier using fsnotify.
type eventNotifier struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger

	mu     sync.Mutex
	regs   []registration
	closed bool

	done chan struct{}
}

func newEventNotifier(log logger.Logger) (*eventNotifier, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	n := &eventNotifier{
		fsw:    fsw,
		logger: log,
		done:   make(chan struct{}),
	}

	go n.processEvents()

	return n, nil
}

// WatchPath implements Notifier.WatchPath.
func (n *eventNotifier) WatchPath(root string, h Handler) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrNotifierClosed
	}
	n.mu.Unlock()

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat watch path %s: %w", root, err)
	}

	reg := registration{root: root, handler: h}

	if info.IsDir() {
		if err := n.addPathRecursive(root); err != nil {
			return err
		}
	} else {
		// Watch the containing directory so the registration
		// survives editors that replace the file by rename.
		reg.target = root
		if err := n.fsw.Add(filepath.Dir(root)); err != nil {
			return fmt.Errorf("failed to add path %s: %w", filepath.Dir(root), err)
		}
	}

	n.mu.Lock()
	n.regs = append(n.regs, reg)
	n.mu.Unlock()

	n.logger.Debug("registered watch path", "path", root, "file_target", reg.target != "")
	return nil
}

// Close implements Notifier.Close.
func (n *eventNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.regs = nil
	n.mu.Unlock()

	close(n.done)

	if err := n.fsw.Close(); err != nil {
		n.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	return nil
}

// processEvents handles events from fsnotify until Close.
func (n *eventNotifier) processEvents() {
	for {
		select {
		case <-n.done:
			return

		case event, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			n.handleEvent(event)

		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.logger.Error("fsnotify error", "error", err)
		}
	}
}

// handleEvent routes one fsnotify event to the matching registrations.
func (n *eventNotifier) handleEvent(event fsnotify.Event) {
	// Permission-only changes carry no content change.
	if event.Op == fsnotify.Chmod {
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	regs := make([]registration, len(n.regs))
	copy(regs, n.regs)
	n.mu.Unlock()

	delivered := false
	for _, reg := range regs {
		if reg.target != "" {
			if event.Name != reg.target {
				continue
			}
		} else if !underRoot(event.Name, reg.root) {
			continue
		}

		delivered = true

		// fsnotify watches are not recursive: pick up directories
		// created after registration.
		if reg.target == "" && event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := n.addPathRecursive(event.Name); err != nil {
					n.logger.Warn("failed to watch new directory",
						"path", event.Name,
						"error", err)
				}
			}
		}

		// Deliver on a dedicated goroutine so a slow handler on one
		// root never stalls delivery for another.
		h, changed, root := reg.handler, event.Name, reg.root
		go h(changed, root)
	}

	if !delivered {
		n.logger.Debug("event outside registered roots", "path", event.Name)
	}
}

// addPathRecursive adds a directory and all its subdirectories.
func (n *eventNotifier) addPathRecursive(path string) error {
	if err := n.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to add path %s: %w", path, err)
	}

	return filepath.Walk(path, func(subPath string, info os.FileInfo, err error) error {
		if err != nil {
			n.logger.Warn("error walking path", "path", subPath, "error", err)
			return nil // Skip but continue walking.
		}

		if !info.IsDir() || subPath == path {
			return nil
		}

		if addErr := n.fsw.Add(subPath); addErr != nil {
			n.logger.Warn("failed to add subdirectory",
				"path", subPath,
				"error", addErr)
		}

		return nil
	})
}

// underRoot reports whether p is root or lies beneath it.
func underRoot(p, root string) bool {
	if p == root {
		return true
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}
