package host

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterExecuteDispose(t *testing.T) {
	r := NewRegistry()

	var got [][]string
	d, err := r.RegisterCommand("cubensis-link.SetProjectWithHotReload", func(args ...string) {
		got = append(got, args)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cubensis-link.SetProjectWithHotReload"}, r.Commands())

	require.NoError(t, r.ExecuteCommand("cubensis-link.SetProjectWithHotReload"))
	require.NoError(t, r.ExecuteCommand("cubensis-link.SetProjectWithHotReload", "/tmp/proj"))
	assert.Equal(t, [][]string{nil, {"/tmp/proj"}}, got)

	d.Dispose()
	assert.Empty(t, r.Commands())
	assert.ErrorIs(t, r.ExecuteCommand("cubensis-link.SetProjectWithHotReload"), ErrUnknownCommand)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterCommand("a.b", func(...string) {})
	require.NoError(t, err)

	_, err = r.RegisterCommand("a.b", func(...string) {})
	assert.ErrorIs(t, err, ErrCommandExists)
}

func TestRegistry_NilHandler(t *testing.T) {
	_, err := NewRegistry().RegisterCommand("a.b", nil)
	assert.Error(t, err)
}

func TestRegistry_StaleDisposeKeepsNewRegistration(t *testing.T) {
	r := NewRegistry()
	first, err := r.RegisterCommand("a.b", func(...string) {})
	require.NoError(t, err)
	first.Dispose()

	calls := 0
	_, err = r.RegisterCommand("a.b", func(...string) { calls++ })
	require.NoError(t, err)

	// A second Dispose on the old handle must not remove the new command.
	first.Dispose()
	require.NoError(t, r.ExecuteCommand("a.b"))
	assert.Equal(t, 1, calls)
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "cmd." + string(rune('a'+i))
			d, err := r.RegisterCommand(id, func(...string) {})
			if err != nil {
				return
			}
			_ = r.ExecuteCommand(id)
			d.Dispose()
		}()
	}
	wg.Wait()
	assert.Empty(t, r.Commands())
}

func TestStaticEditor(t *testing.T) {
	path, ok := StaticEditor("/tmp/proj/main.wgsl").ActiveDocumentPath()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/proj/main.wgsl", path)

	_, ok = StaticEditor("").ActiveDocumentPath()
	assert.False(t, ok)
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Info("Connection to Cubensis established")
	term.Warn("Connection to Cubensis lost")
	term.Error("Shader failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "info")
	assert.Contains(t, lines[0], "Connection to Cubensis established")
	assert.Contains(t, lines[1], "warn")
	assert.Contains(t, lines[2], "error")
	assert.Contains(t, lines[2], "Shader failed")
}

func newTestTracker(t *testing.T, root string) *DocumentTracker {
	t.Helper()
	tr, err := NewDocumentTracker(root, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	<-tr.Ready()
	return tr
}

func TestDocumentTracker_LastWrittenFile(t *testing.T) {
	root := t.TempDir()
	tr := newTestTracker(t, root)

	_, ok := tr.ActiveDocumentPath()
	assert.False(t, ok)

	target := filepath.Join(tr.Root(), "scene.wgsl")
	require.NoError(t, os.WriteFile(target, []byte("@fragment"), 0644))

	require.Eventually(t, func() bool {
		p, ok := tr.ActiveDocumentPath()
		return ok && p == target
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDocumentTracker_NewSubdirectory(t *testing.T) {
	root := t.TempDir()
	tr := newTestTracker(t, root)

	sub := filepath.Join(tr.Root(), "shaders")
	require.NoError(t, os.Mkdir(sub, 0755))
	target := filepath.Join(sub, "post.wgsl")

	// The directory watch is added asynchronously; keep writing until seen.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("x"), 0644)
		p, ok := tr.ActiveDocumentPath()
		return ok && p == target
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDocumentTracker_IgnoresHidden(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	tr := newTestTracker(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".scene.wgsl.swp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scene.wgsl~"), []byte("x"), 0644))

	visible := filepath.Join(tr.Root(), "scene.wgsl")
	require.NoError(t, os.WriteFile(visible, []byte("x"), 0644))

	require.Eventually(t, func() bool {
		p, ok := tr.ActiveDocumentPath()
		return ok && p == visible
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDocumentTracker_SetActiveAndClose(t *testing.T) {
	tr := newTestTracker(t, t.TempDir())

	tr.SetActive("/explicit/path.wgsl")
	p, ok := tr.ActiveDocumentPath()
	assert.True(t, ok)
	assert.Equal(t, "/explicit/path.wgsl", p)

	require.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
}

func TestDocumentTracker_MissingRoot(t *testing.T) {
	_, err := NewDocumentTracker(filepath.Join(t.TempDir(), "missing"), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
