package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Mock services

type mockIngestService struct {
	mu    sync.Mutex
	calls []ingestCall
	err   error
}

type ingestCall struct {
	user string
	req  domain.IngestRequest
}

func (m *mockIngestService) Ingest(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ingestCall{user: callerID, req: req})
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Status: domain.IngestStatusSuccess, ChunksSaved: 2, Chunks: []string{"a", "b"}}, nil
}

func (m *mockIngestService) Calls() []ingestCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ingestCall(nil), m.calls...)
}

type mockSearchService struct {
	lastUser  string
	lastLimit int
}

func (m *mockSearchService) Search(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error) {
	m.lastUser, m.lastLimit = callerID, limit
	if query == "nothing" {
		return nil, nil
	}
	return []domain.ScoredPoint{
		{ID: "p1", Score: 0.91, Payload: domain.Payload{ID: "p1", UserID: callerID, Text: "The cat sat.", Part: domain.IntPtr(3)}},
	}, nil
}

func (m *mockSearchService) ListPoints(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
	m.lastUser, m.lastLimit = callerID, limit
	return []domain.Point{
		{ID: "p1", Payload: domain.Payload{ID: "p1", UserID: callerID, Text: "first"}},
		{ID: "p2", Payload: domain.Payload{ID: "p2", UserID: callerID, Text: "second", Part: domain.IntPtr(1)}},
	}, nil
}

func setupTestServices(t *testing.T) (*mockIngestService, *mockSearchService, *bytes.Buffer) {
	t.Helper()

	ingest := &mockIngestService{}
	search := &mockSearchService{}
	ingestService, searchService = ingest, search
	supported = []string{".pdf", ".txt"}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	t.Cleanup(func() {
		ingestService, searchService, serveFunc, supported, closeFunc = nil, nil, nil, nil, nil
		wiring = nil
		userID, ingestText, envFile, configFile = "", "", ".env", ""
		ingestJSON, searchJSON, pointsJSON = false, false, false
		searchLimit, pointsLimit = 5, 100
		rootCmd.SetArgs(nil)
	})
	return ingest, search, buf
}

func TestVersionCmd(t *testing.T) {
	_, _, buf := setupTestServices(t)
	SetVersion("1.4.0")
	defer SetVersion("dev")

	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "sercha-ingest version 1.4.0")
}

func TestIngestCmd_RequiresUser(t *testing.T) {
	setupTestServices(t)

	rootCmd.SetArgs([]string{"ingest", "--text", "hello."})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}

func TestIngestCmd_Text(t *testing.T) {
	ingest, _, buf := setupTestServices(t)

	rootCmd.SetArgs([]string{"ingest", "--user", "alice", "--text", "The cat sat."})
	require.NoError(t, rootCmd.Execute())

	calls := ingest.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "alice", calls[0].user)
	assert.Equal(t, "The cat sat.", calls[0].req.Text)
	assert.Nil(t, calls[0].req.File)
	assert.Contains(t, buf.String(), "Saved 2 chunk(s) for alice")
}

func TestIngestCmd_File(t *testing.T) {
	ingest, _, buf := setupTestServices(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("file body"), 0o600))

	rootCmd.SetArgs([]string{"ingest", "-u", "bob", "--json", path})
	require.NoError(t, rootCmd.Execute())

	calls := ingest.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].req.File)
	assert.Equal(t, "notes.txt", calls[0].req.File.Filename)
	assert.Equal(t, []byte("file body"), calls[0].req.File.Content)
	assert.Contains(t, buf.String(), `"chunks_saved": 2`)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	rootCmd.SetArgs([]string{"ingest", "-u", "bob", filepath.Join(t.TempDir(), "absent.pdf")})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestIngestCmd_PartialWrite(t *testing.T) {
	ingest, _, _ := setupTestServices(t)
	ingest.err = &domain.PartialWriteError{Stored: 1, Total: 3, Err: errors.New("timeout")}

	rootCmd.SetArgs([]string{"ingest", "-u", "bob", "--text", "a. b. c."})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 chunks stored")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	ingestService = nil

	rootCmd.SetArgs([]string{"ingest", "-u", "bob", "--text", "x"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestServices(t)

	rootCmd.SetArgs([]string{"search", "-u", "alice"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSearchCmd_Executes(t *testing.T) {
	_, search, buf := setupTestServices(t)

	rootCmd.SetArgs([]string{"search", "-u", "alice", "-n", "3", "cat"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "alice", search.lastUser)
	assert.Equal(t, 3, search.lastLimit)
	out := buf.String()
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] p1 (0.91)")
	assert.Contains(t, out, "Page: 3")
	assert.Contains(t, out, "The cat sat.")
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, _, buf := setupTestServices(t)

	rootCmd.SetArgs([]string{"search", "-u", "alice", "nothing"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "No results found.")
}

func TestPointsCmd(t *testing.T) {
	_, search, buf := setupTestServices(t)

	rootCmd.SetArgs([]string{"points", "-u", "carol"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "carol", search.lastUser)
	assert.Equal(t, 100, search.lastLimit)
	assert.Contains(t, buf.String(), "p1  first")
	assert.Contains(t, buf.String(), "p2  p.1  second")
}

func TestServeCmd(t *testing.T) {
	setupTestServices(t)

	called := false
	serveFunc = func(ctx context.Context) error {
		called = true
		return nil
	}

	rootCmd.SetArgs([]string{"serve"})
	require.NoError(t, rootCmd.Execute())
	assert.True(t, called)
}

func TestWiring_ModeAndClose(t *testing.T) {
	setupTestServices(t)
	ingest := &mockIngestService{}

	var gotOpts []Options
	closed := 0
	SetWiring(func(ctx context.Context, opts Options) (*Services, error) {
		gotOpts = append(gotOpts, opts)
		return &Services{
			Ingest: ingest,
			Search: &mockSearchService{},
			Serve:  func(ctx context.Context) error { return nil },
			Close:  func() error { closed++; return nil },
		}, nil
	})

	rootCmd.SetArgs([]string{"serve", "--config", "app.toml"})
	require.NoError(t, Execute(context.Background()))

	rootCmd.SetArgs([]string{"ingest", "-u", "dave", "--text", "hi."})
	require.NoError(t, Execute(context.Background()))

	require.Len(t, gotOpts, 2)
	assert.Equal(t, config.ModeServe, gotOpts[0].Mode)
	assert.Equal(t, "app.toml", gotOpts[0].ConfigFile)
	assert.Equal(t, config.ModeCLI, gotOpts[1].Mode)
	assert.Equal(t, 2, closed, "services are closed after every command")
	assert.Len(t, ingest.Calls(), 1)
}

func TestWiring_SkippedForVersion(t *testing.T) {
	setupTestServices(t)
	SetWiring(func(ctx context.Context, opts Options) (*Services, error) {
		return nil, errors.New("should not be called")
	})

	rootCmd.SetArgs([]string{"version"})
	assert.NoError(t, Execute(context.Background()))
}

func TestWiring_ErrorStopsCommand(t *testing.T) {
	ingest, _, _ := setupTestServices(t)
	SetWiring(func(ctx context.Context, opts Options) (*Services, error) {
		return nil, errors.New("invalid configuration")
	})

	rootCmd.SetArgs([]string{"ingest", "-u", "dave", "--text", "hi."})
	err := Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Empty(t, ingest.Calls())
}

func TestShouldIngest(t *testing.T) {
	exts := []string{".pdf", ".docx", ".txt"}

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"create pdf", fsnotify.Event{Name: "/in/report.pdf", Op: fsnotify.Create}, true},
		{"write txt", fsnotify.Event{Name: "/in/notes.txt", Op: fsnotify.Write}, true},
		{"upper case suffix", fsnotify.Event{Name: "/in/REPORT.PDF", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/in/report.pdf", Op: fsnotify.Remove}, false},
		{"rename", fsnotify.Event{Name: "/in/report.pdf", Op: fsnotify.Rename}, false},
		{"chmod", fsnotify.Event{Name: "/in/report.pdf", Op: fsnotify.Chmod}, false},
		{"unsupported", fsnotify.Event{Name: "/in/image.png", Op: fsnotify.Create}, false},
		{"hidden", fsnotify.Event{Name: "/in/.report.pdf", Op: fsnotify.Create}, false},
		{"editor backup", fsnotify.Event{Name: "/in/notes.txt~", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldIngest(tt.event, exts))
		})
	}

	assert.True(t, shouldIngest(fsnotify.Event{Name: "a.xyz", Op: fsnotify.Create}, nil), "no suffix list accepts all")
}

func TestDirWatcher_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &mockIngestService{}

	w := &dirWatcher{
		dir:    dir,
		userID: "erin",
		ingest: ingest,
		exts:   []string{".txt"},
		settle: 20 * time.Millisecond,
		logger: slogDiscard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	path := filepath.Join(dir, "dropped.txt")
	ignored := filepath.Join(dir, "ignored.png")

	// The watcher starts asynchronously, so keep touching the files until one lands
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("dropped text."), 0o600)
		_ = os.WriteFile(ignored, []byte("png"), 0o600)
		return len(ingest.Calls()) > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	for _, call := range ingest.Calls() {
		assert.Equal(t, "erin", call.user)
		require.NotNil(t, call.req.File)
		assert.Equal(t, "dropped.txt", call.req.File.Filename)
	}
}

func TestDirWatcher_MissingDir(t *testing.T) {
	w := &dirWatcher{dir: filepath.Join(t.TempDir(), "absent"), logger: slogDiscard()}
	err := w.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot watch")
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
