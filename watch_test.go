// FILE: lixenwraith/paramconfig/watch_test.go
package paramconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      20 * time.Millisecond,
		Debounce:          20 * time.Millisecond,
		MaxWatchers:       10,
		VerifyPermissions: true,
	}
}

func newServerTree() (*Tree, *Object) {
	server := MustNew("server", Integer("port", 3000), String("host", "0.0.0.0"))
	return NewTree().Add("server", server), server
}

// waitForEvent skips events of other kinds until one of kind arrives.
func waitForEvent(t *testing.T, events <-chan WatchEvent, kind WatchEventKind) WatchEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
		}
	}
}

func TestWatchReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8080\nhost = \"localhost\"\n"), 0644))

	tree, template := newServerTree()
	w, err := WatchFile(path, tree, FormatUnknown, fastWatchOptions())
	require.NoError(t, err)
	defer w.Stop()
	assert.True(t, w.IsWatching())

	server, ok := w.Current().(*Tree).Lookup("server")
	require.True(t, ok)
	assert.Equal(t, int64(8080), server.Get("port"))
	assert.Equal(t, int64(3000), template.Get("port"), "the template is never written")

	events := w.Subscribe()
	assert.Equal(t, 1, w.WatcherCount())

	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9090\nhost = \"localhost\"\n\n"), 0644))
	ev := waitForEvent(t, events, WatchReloaded)
	assert.Equal(t, []string{"server.port"}, ev.Changed)

	reloaded, ok := ev.Root.(*Tree).Lookup("server")
	require.True(t, ok)
	assert.Equal(t, int64(9090), reloaded.Get("port"))
	assert.Same(t, ev.Root, w.Current())
	assert.Equal(t, int64(8080), server.Get("port"), "earlier snapshots are not mutated")
}

func TestWatchReloadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 1}}`), 0644))

	tree, _ := newServerTree()
	w, err := WatchFile(path, tree, FormatJSON, fastWatchOptions())
	require.NoError(t, err)
	defer w.Stop()
	before := w.Current()

	events := w.Subscribe()
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": `), 0644))
	ev := waitForEvent(t, events, WatchReloadError)
	assert.Error(t, ev.Err)
	assert.Same(t, before, w.Current(), "a failed reload keeps the previous tree")
}

func TestWatchDeleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1\n"), 0644))

	tree, _ := newServerTree()
	w, err := WatchFile(path, tree, FormatUnknown, fastWatchOptions())
	require.NoError(t, err)
	defer w.Stop()

	events := w.Subscribe()
	require.NoError(t, os.Remove(path))
	ev := waitForEvent(t, events, WatchDeleted)
	assert.True(t, os.IsNotExist(ev.Err))

	// Polls while the file stays missing report nothing more.
	select {
	case ev := <-events:
		t.Fatalf("unexpected %s event while the file is missing", ev.Kind)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 22\n"), 0644))
	waitForEvent(t, events, WatchReloaded)
	require.NoError(t, os.Remove(path))
	waitForEvent(t, events, WatchDeleted)
}

func TestWatchPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.ini")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1\n"), 0600))

	tree, _ := newServerTree()
	w, err := WatchFile(path, tree, FormatUnknown, fastWatchOptions())
	require.NoError(t, err)
	defer w.Stop()

	events := w.Subscribe()
	require.NoError(t, os.Chmod(path, 0644))
	waitForEvent(t, events, WatchPermissionsChanged)
}

func TestWatchSubscribeAndStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	tree, _ := newServerTree()
	opts := fastWatchOptions()
	opts.MaxWatchers = 1
	w, err := WatchFile(path, tree, FormatJSON, opts)
	require.NoError(t, err)

	first := w.Subscribe()
	over := w.Subscribe()
	_, open := <-over
	assert.False(t, open, "subscribers beyond the limit get a closed channel")

	w.Stop()
	assert.False(t, w.IsWatching())
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-first:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return w.WatcherCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open = <-w.Subscribe()
	assert.False(t, open)
}

func TestWatchFileErrors(t *testing.T) {
	dir := t.TempDir()
	tree, _ := newServerTree()
	_, err := WatchFile(filepath.Join(dir, "absent.toml"), tree, FormatUnknown, DefaultWatchOptions())
	assert.Error(t, err)

	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	opaque := NewTree().Add("o", opaqueTunable{MustNew("o")})
	_, err = WatchFile(path, opaque, FormatJSON, DefaultWatchOptions())
	assert.ErrorIs(t, err, ErrNotCloneable)

	assert.Equal(t, "permissions_changed", WatchPermissionsChanged.String())
	assert.Equal(t, "WatchEventKind(9)", WatchEventKind(9).String())
}
