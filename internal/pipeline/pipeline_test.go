package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/pipeline"
	"github.com/loopercamera/4M/internal/ports"
	"github.com/loopercamera/4M/internal/testutil"
)

// =============================================================================
// Process: resolve + enrich, one record
// =============================================================================

func newPipeline(t *testing.T, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	return pipeline.New(testutil.Resolver(t), testutil.Table(t), opts...)
}

func TestProcess_Resolved(t *testing.T) {
	p := newPipeline(t)

	res := p.Process(ports.Record{
		Identifier: "ds-1",
		Language:   ports.Languages{"de", "fr"},
		Fields: map[string]string{
			"dataset_title_de":       "Velozählstellen Luzern",
			"dataset_publisher_name": "Stadt Luzern",
		},
	})

	assert.Equal(t, "ds-1", res.Identifier)
	assert.Equal(t, ports.Languages{"de", "fr"}, res.Language)
	assert.Equal(t, "Stadt Luzern", res.Publisher)
	assert.Equal(t, testutil.Luzern, res.LabelID)
	assert.Equal(t, "Luzern", res.Location)
	assert.Equal(t, "Luzern-Stadt", res.District)
	assert.Equal(t, "Luzern", res.Canton)
	assert.Equal(t, "CH", res.Country)
	require.NotNil(t, res.MatchField)
	assert.Equal(t, "dataset_title_de", *res.MatchField)
	require.NotNil(t, res.MatchLevel)
	assert.Equal(t, 3, *res.MatchLevel)
	assert.Equal(t, disambig.RuleSingle, res.MatchRule)
}

func TestProcess_Unresolved(t *testing.T) {
	p := newPipeline(t)

	res := p.Process(ports.Record{
		Identifier: "ds-2",
		Fields:     map[string]string{"dataset_title_en": "Global temperature anomalies"},
	})

	assert.Equal(t, enrich.NoLocationFound, res.LabelID)
	assert.Equal(t, enrich.NotFound, res.Location)
	assert.Equal(t, enrich.NotFound, res.District)
	assert.Equal(t, enrich.NotFound, res.Canton)
	assert.Equal(t, enrich.NotFound, res.Country)
	assert.Nil(t, res.MatchField)
	assert.Nil(t, res.MatchLevel)
}

func TestProcess_NeighborFallbackWithoutTableRow(t *testing.T) {
	p := newPipeline(t)

	res := p.Process(ports.Record{
		Identifier: "ds-3",
		Fields:     map[string]string{"dataset_title_de": "Busverbindungen Vaduz - Schaan"},
	})

	assert.Equal(t, "LI0000000000", res.LabelID)
	assert.Equal(t, "LI", res.Country)
	assert.Equal(t, enrich.NotFound, res.Location)
	assert.Equal(t, disambig.RuleCountryNeighbor, res.MatchRule)
	assert.Nil(t, res.MatchLevel)
}

// =============================================================================
// Run: bounded fan-out, sorted output, summary
// =============================================================================

func batch() []ports.Record {
	return []ports.Record{
		{Identifier: "c", Fields: map[string]string{"dataset_title_de": "Zürich"}},
		{Identifier: "a", Fields: map[string]string{"dataset_publisher_name": "Gemeinde Kriens"}},
		{Identifier: "d", Fields: map[string]string{"dataset_title_de": "Ohne Ort"}},
		{Identifier: "b", Fields: map[string]string{"dataset_title_fr": "Konstanz et Freiburg im Breisgau"}},
	}
}

func TestRun_SortedResultsAndSummary(t *testing.T) {
	p := newPipeline(t, pipeline.WithWorkers(2))

	results, sum, err := p.Run(context.Background(), batch())
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Identifier
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 3, sum.Resolved)
	assert.Equal(t, 1, sum.Unresolved)
	assert.Equal(t, 1, sum.ByField["dataset_publisher_name"])
	assert.Equal(t, 1, sum.ByField["dataset_title_de"])
	assert.Equal(t, 1, sum.ByField["dataset_title_fr"])
	assert.Equal(t, 2, sum.ByCountry["CH"])
	assert.Equal(t, 1, sum.ByCountry["DE"])
	assert.Equal(t, 1, sum.ByRule[disambig.RuleCountryNeighbor])
	assert.Equal(t, 2, sum.ByRule[disambig.RuleSingle])
	assert.InDelta(t, 0.75, sum.Rate(), 1e-9)
}

func TestRun_MatchesSequentialProcessing(t *testing.T) {
	p := newPipeline(t, pipeline.WithWorkers(8))

	var records []ports.Record
	texts := []string{"Zürich", "Bern", "Zürich und Bern", "Basel-Stadt", "Nichts", "Kanton Luzern und Emmen"}
	for i := 0; i < 200; i++ {
		records = append(records, ports.Record{
			Identifier: fmt.Sprintf("ds-%03d", i),
			Fields:     map[string]string{"dataset_title_de": texts[i%len(texts)]},
		})
	}

	results, _, err := p.Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, len(records))
	for i, r := range results {
		assert.Equal(t, p.Process(records[i]), r)
	}
}

func TestRun_Empty(t *testing.T) {
	results, sum, err := newPipeline(t).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, sum.Total)
	assert.Zero(t, sum.Rate())
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newPipeline(t).Run(ctx, batch())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithWorkers(t *testing.T) {
	assert.Equal(t, 3, newPipeline(t, pipeline.WithWorkers(3)).Workers())
	assert.Positive(t, newPipeline(t, pipeline.WithWorkers(0)).Workers())
}

// =============================================================================
// Sync: source -> pipeline -> sink
// =============================================================================

type fakeSource struct {
	records []ports.Record
	limit   int
	err     error
}

func (s *fakeSource) Fetch(_ context.Context, limit int) ([]ports.Record, error) {
	s.limit = limit
	return s.records, s.err
}

type fakeSink struct {
	saved [][]ports.Result
	err   error
}

func (s *fakeSink) Save(_ context.Context, results []ports.Result) error {
	s.saved = append(s.saved, results)
	return s.err
}

func TestSync(t *testing.T) {
	src := &fakeSource{records: batch()}
	sink := &fakeSink{}

	sum, err := newPipeline(t).Sync(context.Background(), src, sink, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, src.limit)
	require.Len(t, sink.saved, 1, "one transactional batch")
	assert.Len(t, sink.saved[0], 4)
	assert.Equal(t, 3, sum.Resolved)
}

func TestSync_NothingPending(t *testing.T) {
	sink := &fakeSink{}
	sum, err := newPipeline(t).Sync(context.Background(), &fakeSource{}, sink, 0)
	require.NoError(t, err)
	assert.Empty(t, sink.saved)
	assert.Equal(t, 0, sum.Total)
}

func TestSync_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := newPipeline(t).Sync(context.Background(), &fakeSource{err: boom}, &fakeSink{}, 0)
	assert.ErrorIs(t, err, boom)

	_, err = newPipeline(t).Sync(context.Background(), &fakeSource{records: batch()}, &fakeSink{err: boom}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestSorted(t *testing.T) {
	got := pipeline.Sorted(map[string]int{"b": 2, "a": 2, "c": 5})
	assert.Equal(t, []pipeline.Count{{Key: "c", N: 5}, {Key: "a", N: 2}, {Key: "b", N: 2}}, got)
}
