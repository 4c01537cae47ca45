package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personid/internal/identity"
	"personid/internal/journal"
	"personid/internal/library"
	"personid/internal/testsupport"
)

const testCatalog = `
[[person]]
name = "山田花子"
birth = "1990年1月1日"
aliases = ["やまだはなこ"]

[[person]]
name = "佐藤太郎"
birth = "1985/5/5"
`

type cliEnv struct {
	base       string
	configPath string
	library    string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteFile(t, filepath.Join(base, "people.toml"), testCatalog)
	testsupport.WriteFile(t, configPath, `
[paths]
log_dir = "`+filepath.Join(base, "logs")+`"
journal_path = "`+filepath.Join(base, "journal.db")+`"

[logging]
format = "json"
level = "error"

[resolver]
workers = 4

[[sources]]
name = "local"
kind = "catalog"
catalog_path = "people.toml"

[[sources]]
name = "api"
kind = "http"
disabled = true
url = "https://example.invalid/?q={keyword}"
name_path = "name"
headers = { Authorization = "Bearer secret-token" }
`)
	library := testsupport.MakeFolders(t, filepath.Join(base, "library"), "山田花子", "1985-05-05 佐藤太郎", "misc")
	return &cliEnv{base: base, configPath: configPath, library: library}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommandPrintsReport(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "resolve", "やまだはなこ", "holiday")
	require.NoError(t, err)
	assert.Contains(t, out, "name:      山田花子")
	assert.Contains(t, out, "birth:     1990-01-01")
	assert.Contains(t, out, "canonical: 1990-01-01 山田花子")
	assert.Contains(t, out, "subject:   holiday")
	assert.Contains(t, out, "does not look like a name")

	_, err = env.run(t, "resolve", "--strict", "holiday")
	require.Error(t, err)
}

func TestScanDryRunThenApply(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "scan", env.library)
	require.NoError(t, err)
	assert.Contains(t, out, "would rename")
	assert.Contains(t, out, "Run again with --apply")
	assert.Equal(t, []string{"1985-05-05 佐藤太郎", "misc", "山田花子"}, testsupport.FolderNames(t, env.library))

	out, err = env.run(t, "scan", env.library, "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed")
	assert.Contains(t, out, "Renamed 1, failed 0")
	assert.Equal(t, []string{"1985-05-05 佐藤太郎", "1990-01-01 山田花子", "misc"}, testsupport.FolderNames(t, env.library))
	_, err = os.Stat(filepath.Join(env.library, ".personid.lock"))
	require.NoError(t, err)

	store, err := journal.Open(filepath.Join(env.base, "journal.db"))
	require.NoError(t, err)
	entries, err := store.List(context.Background(), 0)
	require.NoError(t, store.Close())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(env.library, "1990-01-01 山田花子"), entries[0].To)
	assert.NotEmpty(t, entries[0].RunID)

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "When")
	assert.Contains(t, out, entries[0].RunID[:8])
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No renames recorded")
}

func TestSourcesAndConfigShow(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "catalog")

	out, err = env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# pools: 1 folder workers, 3 lookup workers")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "secret-token")
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.Contains(out.String(), target))

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	require.Error(t, cmd.Execute())
}

func TestScanApplySendsNotification(t *testing.T) {
	env := setupCLI(t)

	var mu sync.Mutex
	var titles, bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		bodies = append(bodies, string(body))
		mu.Unlock()
	}))
	defer server.Close()

	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n[notifications]\nntfy_topic = \"" + server.URL + "\"\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = env.run(t, "scan", env.library, "--apply")
	require.NoError(t, err)

	out, err := env.run(t, "test-notify")
	require.NoError(t, err)
	assert.Contains(t, out, "Test notification sent")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, titles, 2)
	assert.Equal(t, "personid - Scan Complete", titles[0])
	assert.Contains(t, bodies[0], "3 folders")
	assert.Contains(t, bodies[0], "1 renamed")
	assert.Equal(t, "personid - Test", titles[1])
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLI(t)
	_, err := env.run(t, "test-notify")
	assert.ErrorContains(t, err, "ntfy_topic")
}

func TestBindAndApplyFailureKeepsWatchingTarget(t *testing.T) {
	env := setupCLI(t)
	target := filepath.Join(env.library, "1990-01-01 山田花子")
	require.NoError(t, os.Mkdir(target, 0o755))

	configPath := env.configPath
	eng, err := newCommandContext(&configPath).newEngine(false)
	require.NoError(t, err)
	defer eng.Close()

	found := make(chan library.Folder, 4)
	w := library.NewWatcher(env.library, eng.listOpts, 50*time.Millisecond,
		func(_ context.Context, folder library.Folder) { found <- folder }, nil)

	folder := library.Folder{Name: "山田花子", Path: filepath.Join(env.library, "山田花子")}
	rec, err := bindAndApply(context.Background(), eng, w, folder, true)
	require.ErrorIs(t, err, identity.ErrTargetExists)
	require.NotNil(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-stopped)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(target))
	require.NoError(t, os.Mkdir(target, 0o755))

	select {
	case got := <-found:
		assert.Equal(t, target, got.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("failed rename left the target suppressed")
	}
}
