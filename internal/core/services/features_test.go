package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/sercha-ingest/internal/chunker"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/extractor"
	"github.com/custodia-labs/sercha-ingest/internal/runtime"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "ingest",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}

// scenarioState is rebuilt for every scenario
type scenarioState struct {
	tokenizer *tokenizer.Whitespace
	embedding *mocks.MockEmbeddingService
	store     *sqlite.Store
	ingest    driving.IngestService
	search    driving.SearchService

	result  *domain.IngestResult
	err     error
	points  []domain.Point
	results []domain.ScoredPoint
}

func initializeScenario(sc *godog.ScenarioContext) {
	s := &scenarioState{}

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.store != nil {
			_ = s.store.Close()
		}
		return ctx, err
	})

	sc.Step(`^an ingest pipeline with a chunk limit of (\d+) tokens$`, s.pipeline)
	sc.Step(`^user "([^"]*)" ingests the text "([^"]*)"$`, s.ingestText)
	sc.Step(`^user "([^"]*)" has ingested "([^"]*)"$`, s.hasIngested)
	sc.Step(`^user "([^"]*)" ingests a single sentence of (\d+) tokens$`, s.ingestLongSentence)
	sc.Step(`^user "([^"]*)" lists their points$`, s.listPoints)
	sc.Step(`^user "([^"]*)" searches for "([^"]*)"$`, s.searchFor)

	sc.Step(`^the ingest succeeds with (\d+) chunks?$`, s.ingestSucceeds)
	sc.Step(`^the ingest fails for lack of input$`, s.ingestFailsNoInput)
	sc.Step(`^the embedding service was called (\d+) times?(?: with (\d+) inputs?)?$`, s.embeddingCalls)
	sc.Step(`^user "([^"]*)" owns (\d+) points?$`, s.userOwns)
	sc.Step(`^chunk (\d+) is "([^"]*)"$`, s.chunkIs)
	sc.Step(`^the chunks hold (\d+), (\d+) and (\d+) tokens in order$`, s.chunkSizes)
	sc.Step(`^every point belongs to user "([^"]*)"$`, s.everyPointBelongsTo)
	sc.Step(`^every result belongs to user "([^"]*)"$`, s.everyResultBelongsTo)
	sc.Step(`^the top result text is "([^"]*)"$`, s.topResultIs)
}

func (s *scenarioState) pipeline(ctx context.Context, maxTokens int) error {
	store, err := sqlite.New(":memory:", "documents", nil)
	if err != nil {
		return err
	}
	if err := store.EnsureCollection(ctx, 384); err != nil {
		return err
	}

	s.store = store
	s.tokenizer = tokenizer.NewWhitespace()
	s.embedding = mocks.NewMockEmbeddingService()

	services := runtime.NewServices(domain.NewRuntimeConfig("memory", "sqlite"))
	services.SetEmbeddingService(s.embedding)
	services.SetVectorStore(store)

	s.ingest = NewIngestService(IngestServiceConfig{
		Extractors: extractor.DefaultRegistry(nil),
		Chunker:    chunker.New(s.tokenizer, tokenizer.PunctSplitter{}, chunker.WithMaxTokens(maxTokens)),
		Services:   services,
		Workers:    1,
	})
	s.search = NewSearchService(services, nil)
	return nil
}

func (s *scenarioState) ingestText(ctx context.Context, user, text string) error {
	s.result, s.err = s.ingest.Ingest(ctx, user, domain.IngestRequest{Text: text})
	return nil
}

func (s *scenarioState) hasIngested(ctx context.Context, user, text string) error {
	_, err := s.ingest.Ingest(ctx, user, domain.IngestRequest{Text: text})
	return err
}

func (s *scenarioState) ingestLongSentence(ctx context.Context, user string, tokens int) error {
	words := make([]string, tokens)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return s.ingestText(ctx, user, strings.Join(words, " ")+".")
}

func (s *scenarioState) listPoints(ctx context.Context, user string) error {
	points, err := s.search.ListPoints(ctx, user, 0)
	s.points = points
	return err
}

func (s *scenarioState) searchFor(ctx context.Context, user, query string) error {
	results, err := s.search.Search(ctx, user, query, 10)
	s.results = results
	return err
}

func (s *scenarioState) ingestSucceeds(n int) error {
	if s.err != nil {
		return fmt.Errorf("ingest failed: %w", s.err)
	}
	if s.result.Status != domain.IngestStatusSuccess {
		return fmt.Errorf("status %q", s.result.Status)
	}
	if s.result.ChunksSaved != n || len(s.result.Chunks) != n {
		return fmt.Errorf("expected %d chunks, saved %d: %q", n, s.result.ChunksSaved, s.result.Chunks)
	}
	return nil
}

func (s *scenarioState) ingestFailsNoInput() error {
	if !errors.Is(s.err, domain.ErrNoInput) {
		return fmt.Errorf("expected ErrNoInput, got %v", s.err)
	}
	return nil
}

func (s *scenarioState) embeddingCalls(calls int, inputs string) error {
	got := s.embedding.Calls()
	if len(got) != calls {
		return fmt.Errorf("expected %d embedding calls, got %d", calls, len(got))
	}
	if inputs == "" {
		return nil
	}
	for _, batch := range got {
		if fmt.Sprint(len(batch)) != inputs {
			return fmt.Errorf("expected %s inputs per call, got %d", inputs, len(batch))
		}
	}
	return nil
}

func (s *scenarioState) userOwns(ctx context.Context, user string, n int) error {
	points, err := s.store.ScrollByUser(ctx, user, 100)
	if err != nil {
		return err
	}
	if len(points) != n {
		return fmt.Errorf("expected %d points for %s, got %d", n, user, len(points))
	}
	return nil
}

func (s *scenarioState) chunkIs(n int, text string) error {
	if s.result == nil || n < 1 || n > len(s.result.Chunks) {
		return fmt.Errorf("no chunk %d", n)
	}
	if got := s.result.Chunks[n-1]; got != text {
		return fmt.Errorf("chunk %d is %q", n, got)
	}
	return nil
}

func (s *scenarioState) chunkSizes(a, b, c int) error {
	want := []int{a, b, c}
	if s.result == nil || len(s.result.Chunks) != len(want) {
		return fmt.Errorf("expected %d chunks", len(want))
	}
	for i, chunk := range s.result.Chunks {
		if got := s.tokenizer.Count(chunk); got != want[i] {
			return fmt.Errorf("chunk %d has %d tokens, want %d", i+1, got, want[i])
		}
	}
	if !strings.HasPrefix(s.result.Chunks[0], "w0 ") || !strings.HasSuffix(s.result.Chunks[2], "w1199.") {
		return errors.New("chunks are out of order")
	}
	return nil
}

func (s *scenarioState) everyPointBelongsTo(user string) error {
	if len(s.points) == 0 {
		return errors.New("no points listed")
	}
	for _, p := range s.points {
		if p.Payload.UserID != user {
			return fmt.Errorf("point %s belongs to %s", p.ID, p.Payload.UserID)
		}
	}
	return nil
}

func (s *scenarioState) everyResultBelongsTo(user string) error {
	if len(s.results) == 0 {
		return errors.New("no search results")
	}
	for _, r := range s.results {
		if r.Payload.UserID != user {
			return fmt.Errorf("result %s belongs to %s", r.ID, r.Payload.UserID)
		}
	}
	return nil
}

func (s *scenarioState) topResultIs(text string) error {
	if len(s.results) == 0 {
		return errors.New("no search results")
	}
	if got := s.results[0].Payload.Text; got != text {
		return fmt.Errorf("top result is %q", got)
	}
	return nil
}
