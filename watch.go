// FILE: lixenwraith/paramconfig/watch.go
package paramconfig

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// File watching timing.
const (
	SpinWaitInterval     = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinPollInterval      = 10 * time.Millisecond  // Hard floor for file stat polling
	ShutdownTimeout      = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce      = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval  = time.Second            // Standard file monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for reload operations
	DefaultMaxWatchers   = 100                    // Prevent resource exhaustion
)

// WatchOptions tunes how WatchFile polls and reloads.
type WatchOptions struct {
	// PollInterval between stat calls; clamped to MinPollInterval.
	PollInterval time.Duration

	// Debounce delays a reload until writes settle.
	Debounce time.Duration

	// MaxWatchers caps open Subscribe channels.
	MaxWatchers int

	// ReloadTimeout bounds one parse of the file.
	ReloadTimeout time.Duration

	// VerifyPermissions refuses to reload when group or world permissions change
	VerifyPermissions bool
}

// DefaultWatchOptions polls once a second with permission checks on.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// WatchEventKind classifies a WatchEvent.
type WatchEventKind int

const (
	WatchReloaded WatchEventKind = iota
	WatchDeleted
	WatchPermissionsChanged
	WatchReloadError
	WatchReloadTimeout
)

func (k WatchEventKind) String() string {
	switch k {
	case WatchReloaded:
		return "reloaded"
	case WatchDeleted:
		return "file_deleted"
	case WatchPermissionsChanged:
		return "permissions_changed"
	case WatchReloadError:
		return "reload_error"
	case WatchReloadTimeout:
		return "reload_timeout"
	}
	return fmt.Sprintf("WatchEventKind(%d)", int(k))
}

// WatchEvent reports one observation of the watched file. Root is the
// freshly loaded tree on WatchReloaded; Changed lists the dotted names of
// attributes whose serialized value differs from the previous load.
type WatchEvent struct {
	Kind    WatchEventKind
	Root    Node
	Changed []string
	Err     error
}

// Watcher reloads a parameter file into copies of a template tree whenever
// the file changes. Every reload builds a new tree, so subscribers never
// observe an object being mutated.
type Watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	filePath         string
	format           Format
	template         Node
	current          Node
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	deleted          bool // set while the file is missing; owned by watchLoop
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	watchers         map[int64]chan WatchEvent
	watcherID        atomic.Int64
	debounceTimer    *time.Timer
}

// WatchFile loads path into a copy of template and starts polling it.
// Every object in template must implement Cloner.
func WatchFile(path string, template Node, format Format, opts WatchOptions) (*Watcher, error) {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	w := &Watcher{
		opts:     opts,
		filePath: path,
		format:   format,
		template: template,
		watchers: make(map[int64]chan WatchEvent),
	}
	root, err := w.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load file for watching: %w", err)
	}
	w.current = root
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.watching.Store(true)
	go w.watchLoop()
	return w, nil
}

// load reads the file into a fresh copy of the template.
func (w *Watcher) load() (Node, error) {
	root, err := cloneTree(w.template, nil)
	if err != nil {
		return nil, err
	}
	if err := ReadFile(w.filePath, root, w.format); err != nil {
		return nil, err
	}
	return root, nil
}

// Current returns the most recently loaded tree.
func (w *Watcher) Current() Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// IsWatching reports whether the poll loop is running.
func (w *Watcher) IsWatching() bool {
	return w.watching.Load()
}

// WatcherCount returns the number of open Subscribe channels.
func (w *Watcher) WatcherCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.watchers)
}

// watchLoop polls until Stop.
func (w *Watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload stats the file and arms the debounce timer on change.
func (w *Watcher) checkAndReload() {
	info, err := os.Stat(w.filePath)
	if err != nil {
		// Reported once per disappearance.
		if os.IsNotExist(err) && !w.deleted {
			w.deleted = true
			w.notifyWatchers(WatchEvent{Kind: WatchDeleted, Err: err})
		}
		return
	}
	w.deleted = false

	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize

	// A change in group or world bits is reported instead of reloaded.
	if w.opts.VerifyPermissions && w.lastMode != 0 && info.Mode() != w.lastMode {
		if (info.Mode() & 0077) != (w.lastMode & 0077) {
			w.lastMode = info.Mode()
			w.notifyWatchers(WatchEvent{Kind: WatchPermissionsChanged})
			return
		}
	}

	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
		w.mu.Unlock()
	}
}

// performReload loads a fresh tree and publishes it.
func (w *Watcher) performReload() {
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	type result struct {
		root Node
		err  error
	}
	done := make(chan result, 1)
	go func() {
		root, err := w.load()
		done <- result{root, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			w.notifyWatchers(WatchEvent{Kind: WatchReloadError, Err: res.err})
			return
		}
		w.mu.Lock()
		prev := w.current
		w.current = res.root
		w.mu.Unlock()
		w.notifyWatchers(WatchEvent{Kind: WatchReloaded, Root: res.root, Changed: changedNames(prev, res.root)})

	case <-ctx.Done():
		w.notifyWatchers(WatchEvent{Kind: WatchReloadTimeout, Err: ctx.Err()})
	}
}

// changedNames compares two trees by their serialized values.
func changedNames(prev, next Node) []string {
	snapshot := func(n Node) map[string]any {
		data, _, err := SerializeTree(n, SerializeOptions{OnMissing: Ignore})
		if err != nil {
			return nil
		}
		return flattenMap(data, "")
	}
	oldValues, newValues := snapshot(prev), snapshot(next)

	var changed []string
	for path, newVal := range newValues {
		if oldVal, existed := oldValues[path]; !existed || !reflect.DeepEqual(oldVal, newVal) {
			changed = append(changed, path)
		}
	}
	for path := range oldValues {
		if _, exists := newValues[path]; !exists {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// Subscribe returns a channel of watch events. It is closed when the
// watcher stops, or immediately once MaxWatchers channels exist.
func (w *Watcher) Subscribe() <-chan WatchEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.watchers) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		ch := make(chan WatchEvent)
		close(ch)
		return ch
	}

	ch := make(chan WatchEvent, 10)
	id := w.watcherID.Add(1)
	w.watchers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.watchers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notifyWatchers never blocks; full channels miss the event.
func (w *Watcher) notifyWatchers(ev WatchEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Stop terminates the watcher and closes every subscriber channel.
func (w *Watcher) Stop() {
	w.cancel()

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}
