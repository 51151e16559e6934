package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/snapwatch/snapwatch/pkg/config"
	"github.com/snapwatch/snapwatch/pkg/logger"
	"github.com/snapwatch/snapwatch/pkg/notify"
)

// fakeNotifier records registrations and lets tests fire changes
// synchronously.
type fakeNotifier struct {
	mu       sync.Mutex
	closed   bool
	handlers map[string]notify.Handler
	failOn   string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{handlers: make(map[string]notify.Handler)}
}

func (f *fakeNotifier) WatchPath(root string, h notify.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return notify.ErrNotifierClosed
	}
	if f.failOn != "" && root == f.failOn {
		return notify.ErrNotifierClosed
	}

	f.handlers[root] = h
	return nil
}

func (f *fakeNotifier) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fire delivers a change the way the real engine would: only while
// the registration is live.
func (f *fakeNotifier) fire(changed, root string) {
	f.mu.Lock()
	h, ok := f.handlers[root]
	closed := f.closed
	f.mu.Unlock()

	if closed || !ok {
		return
	}

	h(changed, root)
}

// handlerFor returns the registered handler even after Close, the
// way a callback already handed to a worker goroutine keeps running
// while the registration is torn down.
func (f *fakeNotifier) handlerFor(root string) notify.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[root]
}

func (f *fakeNotifier) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeNotifier) hasRegistration(root string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[root]
	return ok
}

// fakeRepo counts snapshots and serves canned ignore answers.
type fakeRepo struct {
	mu          sync.Mutex
	snapshots   int
	ignored     map[string]bool
	ignoreErr   error
	snapshotErr error
}

func (r *fakeRepo) IsIgnored(rel string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ignoreErr != nil {
		return false, r.ignoreErr
	}
	return r.ignored[filepath.ToSlash(rel)], nil
}

func (r *fakeRepo) Snapshot() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshotErr != nil {
		return r.snapshotErr
	}
	r.snapshots++
	return nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots
}

// fakeDeps wires fake collaborators into the watch layer. Each
// generation build gets a fresh fakeNotifier; repositories are
// created lazily per root.
type fakeDeps struct {
	mu        sync.Mutex
	notifiers []*fakeNotifier
	repos     map[string]*fakeRepo
	openErr   map[string]error
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		repos:   make(map[string]*fakeRepo),
		openErr: make(map[string]error),
	}
}

func (d *fakeDeps) deps() Deps {
	return Deps{
		NewNotifier: func(config.WatchMode, time.Duration, logger.Logger) (notify.Notifier, error) {
			n := newFakeNotifier()
			d.mu.Lock()
			d.notifiers = append(d.notifiers, n)
			d.mu.Unlock()
			return n, nil
		},
		OpenRepo: func(path string) (Repository, error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			if err := d.openErr[path]; err != nil {
				return nil, err
			}
			return d.repoLocked(path), nil
		},
	}
}

// repoFor returns the fake repository for a root, creating it if
// needed.
func (d *fakeDeps) repoFor(root string) *fakeRepo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.repoLocked(root)
}

func (d *fakeDeps) repoLocked(root string) *fakeRepo {
	r, ok := d.repos[root]
	if !ok {
		r = &fakeRepo{ignored: make(map[string]bool)}
		d.repos[root] = r
	}
	return r
}

// notifier returns the i-th notifier created, counting from zero.
func (d *fakeDeps) notifier(t *testing.T, i int) *fakeNotifier {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.notifiers) {
		t.Fatalf("notifier %d not created yet (have %d)", i, len(d.notifiers))
	}
	return d.notifiers[i]
}

func (d *fakeDeps) notifierCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notifiers)
}

// canonicalTempDir creates a temp dir resolved through symlinks, so
// it compares equal to the roots the builder canonicalizes.
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}
