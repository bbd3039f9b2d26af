package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/passagesearch/internal/augment"
	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/engine/bleveengine"
	"github.com/hyperjump/passagesearch/internal/errs"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

type fakeEngine struct {
	pingErr   error
	searchErr error
	hits      []engine.Hit
	lastReq   engine.Request
	searches  int
}

func (f *fakeEngine) Ping(context.Context) error { return f.pingErr }

func (f *fakeEngine) Search(_ context.Context, _ string, req engine.Request) (*engine.Result, error) {
	f.searches++
	f.lastReq = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &engine.Result{Total: int64(len(f.hits)), Hits: f.hits}, nil
}

type fakeAugmenter struct {
	summary augment.Summary
	err     error
	calls   int
	got     []models.SearchHit
}

func (f *fakeAugmenter) Summarize(_ context.Context, _ string, hits []models.SearchHit) (augment.Summary, error) {
	f.calls++
	f.got = hits
	return f.summary, f.err
}

type memCache struct {
	entries map[string]*models.SearchResponse
	getErr  error
	sets    int
}

func (m *memCache) Get(_ context.Context, index, query string) (*models.SearchResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.entries[index+"|"+strings.ToLower(query)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memCache) Set(_ context.Context, index, query string, resp *models.SearchResponse) error {
	m.sets++
	m.entries[index+"|"+strings.ToLower(query)] = resp
	return nil
}

func hit(id, text string, score float64) engine.Hit {
	return engine.Hit{
		ID:         id,
		Score:      score,
		Source:     map[string]interface{}{"doc_id": id, "text": text},
		Highlights: map[string][]string{"text": {"<mark>" + text + "</mark>"}},
	}
}

func TestSearch_AugmentsTopHits(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 4), hit("2", "b", 3), hit("3", "c", 2), hit("4", "d", 1)}}
	aug := &fakeAugmenter{summary: augment.Summary{Text: "summary", Source: models.SummaryGenerated}}
	o := NewOrchestrator(eng, aug, DefaultConfig("passages"))

	resp, err := o.Search(context.Background(), "  beta ")
	require.NoError(t, err)
	assert.Equal(t, "beta", resp.Query)
	assert.Len(t, resp.Results, 4)
	require.NotNil(t, resp.EnhancedResponse)
	assert.Equal(t, "summary", *resp.EnhancedResponse)
	assert.Equal(t, models.SummaryGenerated, resp.SummarySource)
	assert.Nil(t, resp.AugmentationError)
	require.Len(t, aug.got, 3)
	assert.Equal(t, "1", aug.got[0].DocID)

	assert.Equal(t, 20, eng.lastReq.Size)
	assert.Equal(t, []string{"text"}, eng.lastReq.Fields)
	require.NotNil(t, eng.lastReq.Highlight)
	assert.Equal(t, 3, eng.lastReq.Highlight.Fragments)
	assert.Equal(t, 200, eng.lastReq.Highlight.FragmentChars)
	assert.Equal(t, "<mark>", eng.lastReq.Highlight.PreTag)
}

func TestSearch_AugmentationFailureKeepsHits(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	aug := &fakeAugmenter{err: errors.New("503 model loading")}

	resp, err := NewOrchestrator(eng, aug, DefaultConfig("passages")).Search(context.Background(), "beta")
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Nil(t, resp.EnhancedResponse)
	require.NotNil(t, resp.AugmentationError)
	assert.Contains(t, *resp.AugmentationError, "model loading")
}

func TestSearch_NoHitsSkipsAugmentation(t *testing.T) {
	aug := &fakeAugmenter{}
	resp, err := NewOrchestrator(&fakeEngine{}, aug, DefaultConfig("passages")).Search(context.Background(), "zeta")
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Nil(t, resp.EnhancedResponse)
	assert.Nil(t, resp.AugmentationError)
	assert.Zero(t, aug.calls)
}

func TestSearch_Errors(t *testing.T) {
	cases := []struct {
		name  string
		eng   *fakeEngine
		query string
		want  error
	}{
		{"blank query", &fakeEngine{}, "   ", errs.ErrInvalidQuery},
		{"unreachable", &fakeEngine{pingErr: errors.New("connection refused")}, "beta", errs.ErrServiceUnavailable},
		{"search failure", &fakeEngine{searchErr: errors.New("index_not_found")}, "beta", errs.ErrQueryExecution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrchestrator(tc.eng, &fakeAugmenter{}, DefaultConfig("passages")).Search(context.Background(), tc.query)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSearch_BlankQueryMakesNoEngineCall(t *testing.T) {
	eng := &fakeEngine{}
	_, _ = NewOrchestrator(eng, nil, DefaultConfig("passages")).Search(context.Background(), "")
	assert.Zero(t, eng.searches)
}

func TestSearch_Cache(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	aug := &fakeAugmenter{summary: augment.Summary{Text: "s", Source: models.SummaryGenerated}}
	cache := &memCache{entries: map[string]*models.SearchResponse{}}
	o := NewOrchestrator(eng, aug, DefaultConfig("passages"), WithCache(cache))

	first, err := o.Search(context.Background(), "beta")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	second, err := o.Search(context.Background(), "beta")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, eng.searches)
	assert.Equal(t, 1, aug.calls)
}

func TestSearch_CacheHitEchoesCallerQuery(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	cache := &memCache{entries: map[string]*models.SearchResponse{}}
	o := NewOrchestrator(eng, nil, DefaultConfig("passages"), WithCache(cache))

	_, err := o.Search(context.Background(), "beta")
	require.NoError(t, err)
	resp, err := o.Search(context.Background(), "  Beta ")
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, "Beta", resp.Query)
	assert.Equal(t, 1, eng.searches)
}

func TestSearch_UnreachableEngineIgnoresCache(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	cache := &memCache{entries: map[string]*models.SearchResponse{}}
	o := NewOrchestrator(eng, nil, DefaultConfig("passages"), WithCache(cache))

	_, err := o.Search(context.Background(), "beta")
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	eng.pingErr = errors.New("connection refused")
	resp, err := o.Search(context.Background(), "beta")
	assert.ErrorIs(t, err, errs.ErrServiceUnavailable)
	assert.Nil(t, resp)
}

func TestSearch_AugmentationErrorsAreNotCached(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	cache := &memCache{entries: map[string]*models.SearchResponse{}}
	o := NewOrchestrator(eng, &fakeAugmenter{err: errors.New("boom")}, DefaultConfig("passages"), WithCache(cache))

	_, err := o.Search(context.Background(), "beta")
	require.NoError(t, err)
	assert.Zero(t, cache.sets)
}

func TestSearch_CacheReadFailureFallsThrough(t *testing.T) {
	eng := &fakeEngine{hits: []engine.Hit{hit("1", "a", 1)}}
	cache := &memCache{entries: map[string]*models.SearchResponse{}, getErr: errors.New("redis down")}
	resp, err := NewOrchestrator(eng, nil, DefaultConfig("passages"), WithCache(cache)).Search(context.Background(), "beta")
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestNormalizeHits(t *testing.T) {
	got := normalizeHits([]engine.Hit{{ID: "x", Score: 0.5}})
	require.Len(t, got, 1)
	assert.Equal(t, models.SearchHit{DocID: "", Text: "", Highlights: []string{}, Score: 0.5}, got[0])
}

func TestSearch_ThreeDocumentExampleOnBleve(t *testing.T) {
	ctx := context.Background()
	eng, err := bleveengine.New("")
	require.NoError(t, err)
	defer eng.Close()
	require.NoError(t, eng.CreateIndex(ctx, "passages", schema.Default()))
	var docs []models.Document
	for _, rec := range []models.CorpusRecord{{ID: "1", Text: "alpha beta"}, {ID: "2", Text: "beta gamma"}, {ID: "3", Text: "gamma delta"}} {
		docs = append(docs, models.NewDocument(rec))
	}
	_, err = eng.Bulk(ctx, "passages", docs)
	require.NoError(t, err)

	aug := &fakeAugmenter{summary: augment.Summary{Text: "s", Source: models.SummaryFallback}}
	resp, err := NewOrchestrator(eng, aug, DefaultConfig("passages")).Search(ctx, "beta")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	ids := map[string]bool{resp.Results[0].DocID: true, resp.Results[1].DocID: true}
	assert.Equal(t, map[string]bool{"1": true, "2": true}, ids)
	for _, r := range resp.Results {
		require.NotEmpty(t, r.Highlights)
		assert.Contains(t, r.Highlights[0], "<mark>beta</mark>")
	}
	assert.Equal(t, models.SummaryFallback, resp.SummarySource)
}
