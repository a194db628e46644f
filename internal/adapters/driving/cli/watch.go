package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// defaultSettle is how long a file must stay quiet before it is ingested
const defaultSettle = 500 * time.Millisecond

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a directory",
	Long: `Watches a directory and ingests every supported file that is created
or rewritten in it, as points owned by --user. A file is ingested once it
has stopped changing for the settle interval. Stops on SIGINT or SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", defaultSettle, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &dirWatcher{
		dir:     args[0],
		userID:  user,
		ingest:  ingestService,
		exts:    supported,
		settle:  watchSettle,
		logger:  slog.Default().With("component", "watch", "dir", args[0]),
		onSaved: func(path string, n int) { cmd.Printf("%s: saved %d chunk(s)\n", filepath.Base(path), n) },
	}
	cmd.Printf("Watching %s for %s (Ctrl+C to stop)\n", args[0], user)
	return w.run(ctx)
}

// dirWatcher debounces fsnotify events per file and ingests each settled file once
type dirWatcher struct {
	dir     string
	userID  string
	ingest  driving.IngestService
	exts    []string
	settle  time.Duration
	logger  *slog.Logger
	onSaved func(path string, chunks int)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func (w *dirWatcher) run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	if w.settle <= 0 {
		w.settle = defaultSettle
	}
	w.pending = make(map[string]*time.Timer)
	w.logger.Info("watching directory", "user_id", w.userID)

	defer func() {
		w.mu.Lock()
		for path, t := range w.pending {
			if t.Stop() {
				w.wg.Done()
			}
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIngest(event, w.exts) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer for path
func (w *dirWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
	w.pending[path] = t
}

func (w *dirWatcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read file", "path", path, "error", err)
		return
	}

	req := domain.IngestRequest{File: &domain.RawDocument{Filename: filepath.Base(path), Content: content}}
	result, err := w.ingest.Ingest(ctx, w.userID, req)
	if err != nil {
		w.logger.Error("ingest failed", "path", path, "error", err)
		return
	}

	w.logger.Info("file ingested", "path", path, "chunks", result.ChunksSaved)
	if w.onSaved != nil {
		w.onSaved(path, result.ChunksSaved)
	}
}

// shouldIngest accepts creates and writes of regular, non-hidden files whose
// suffix is supported. An empty exts list accepts every suffix.
func shouldIngest(event fsnotify.Event, exts []string) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if len(exts) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
