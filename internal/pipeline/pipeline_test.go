package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/observability"
	"github.com/couchcryptid/geomag-field-service/internal/pipeline"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawFix
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawFix, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for fixes
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawFix) (domain.OutputReport, error) {
	if m.err != nil {
		return domain.OutputReport{}, m.err
	}
	return domain.OutputReport{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	loaded []domain.OutputReport
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.OutputReport) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawFix(t, "fix-1", 47.6205, -122.3493, 2025.25)

	ext := &mockExtractor{batches: [][]domain.RawFix{{raw}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches — will block
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
}

func TestPipeline_Run_NotReadyBeforeFirstBatch(t *testing.T) {
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 50)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawFix(t, "fix-2", 0, 0, 2025.0)
	raw.Commit = func(_ context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawFix{{raw}}}
	tfm := &mockTransformer{err: errors.New("bad fix")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.True(t, committed.Load(), "poison pills must be committed so they are not redelivered")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawFix(t, "fix-5", 10, 20, 2025.5)
	raw.Topic = "position-fixes"
	raw.Commit = func(_ context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawFix{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, committed.Load())
}

func TestPipeline_Run_LoadErrorBacksOffAndRetries(t *testing.T) {
	raw := makeRawFix(t, "fix-6", 10, 20, 2025.5)
	batch := []domain.RawFix{raw}

	ext := &mockExtractor{batches: [][]domain.RawFix{batch, batch}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

// --- transformer tests ---

const testCOFHeader = "2025.0 TESTWMM 11/13/2024"

// testModel builds a pure axial dipole whose g(1,0) coefficient sets the
// horizontal intensity at the equator, and with it the zone label.
func testModel(t *testing.T, g10 string) *wmm.Model {
	t.Helper()
	cof := testCOFHeader + "\n1 0 " + g10 + " 0.0 0.0 0.0\n9999\n"
	m, err := wmm.ReadModel(strings.NewReader(cof), false)
	require.NoError(t, err)
	return m
}

func newTransformer(t *testing.T, g10 string, allowOutside, strict bool) *pipeline.FieldTransformer {
	t.Helper()
	return pipeline.NewTransformer(testModel(t, g10), allowOutside, strict, slog.Default(), newTestMetrics())
}

func TestFieldTransformer_Transform(t *testing.T) {
	tfm := newTransformer(t, "-30000.0", false, false)
	raw := makeRawFix(t, "fix-7", 0, 0, 2025.25)

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, []byte("fix-7"), out.Key)
	assert.Equal(t, domain.ZoneNominal, out.Headers["zone"])
	assert.Equal(t, "ins-7", out.Headers["source"])

	var report domain.FieldReport
	require.NoError(t, json.Unmarshal(out.Value, &report))
	assert.Equal(t, "fix-7", report.ID)
	assert.Equal(t, 2025.25, report.DecimalYear)
	assert.InDelta(t, 0.0, report.Declination, 1e-9)
	assert.Greater(t, report.F, 29000.0)
	assert.Equal(t, domain.GridVariationUnavailable, report.GridVariation)
	require.NotNil(t, report.Uncertainty)
	assert.Equal(t, 137.0, report.Uncertainty.X)
}

func TestFieldTransformer_InvalidFix(t *testing.T) {
	tfm := newTransformer(t, "-30000.0", false, false)

	_, err := tfm.Transform(context.Background(), domain.RawFix{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestFieldTransformer_TimeOutsideLifespan(t *testing.T) {
	tfm := newTransformer(t, "-30000.0", false, false)
	raw := makeRawFix(t, "fix-8", 0, 0, 2031.0)

	_, err := tfm.Transform(context.Background(), raw)
	require.ErrorIs(t, err, wmm.ErrTimeOutOfRange)
}

func TestFieldTransformer_LifespanOverride(t *testing.T) {
	tfm := newTransformer(t, "-30000.0", true, false)
	raw := makeRawFix(t, "fix-9", 0, 0, 2031.0)

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	// 2031 lies outside every published error-budget window.
	var report domain.FieldReport
	require.NoError(t, json.Unmarshal(out.Value, &report))
	assert.Nil(t, report.Uncertainty)
}

func TestFieldTransformer_BlackoutAdvisory(t *testing.T) {
	tfm := newTransformer(t, "-1000.0", false, false)
	raw := makeRawFix(t, "fix-10", 0, 0, 2025.0)

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, domain.ZoneBlackout, out.Headers["zone"])
}

func TestFieldTransformer_BlackoutStrict(t *testing.T) {
	tfm := newTransformer(t, "-1000.0", false, true)
	raw := makeRawFix(t, "fix-11", 0, 0, 2025.0)

	_, err := tfm.Transform(context.Background(), raw)
	require.ErrorIs(t, err, wmm.ErrBlackoutZone)
}

// --- helpers ---

func makeRawFix(t *testing.T, id string, lat, lon, year float64) domain.RawFix {
	t.Helper()
	data, err := json.Marshal(domain.PositionRecord{
		ID:          id,
		Source:      "ins-7",
		Lat:         lat,
		Lon:         lon,
		DecimalYear: year,
	})
	require.NoError(t, err)
	return domain.RawFix{
		Key:   []byte(id),
		Value: data,
	}
}
