package estimator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() ServiceConfig {
	return ServiceConfig{
		Timeout:           time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
		Fallbacks:         Fallbacks{Default: 2500, ByRegion: map[string]float64{"Madrid": 5500}},
	}
}

var salamanca = Query{Region: "Madrid", Locality: "Madrid", Neighborhood: "Salamanca", IsSale: true}

func TestServiceReturnsParsedModelAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "6.850"}
	svc := NewService(zap.NewNop(), gen, testConfig())

	got := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	assert.Equal(t, 6850.0, got.Value)
	assert.Equal(t, SourceModel, got.Source)
	assert.False(t, got.IsFallback())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Salamanca")
}

func TestServiceCachesSuccessfulAnswers(t *testing.T) {
	gen := &fakeGenerator{answer: "4100"}
	svc := NewService(zap.NewNop(), gen, testConfig())

	first := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	second := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)

	assert.Equal(t, SourceModel, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, gen.callCount())

	purchase := salamanca
	purchase.IsSale = false
	svc.EstimatePricePerSquareMeter(context.Background(), purchase)
	assert.Equal(t, 2, gen.callCount())
}

func TestServiceFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		gen      TextGenerator
		query    Query
		expected float64
		reason   string
	}{
		{
			name:     "Generator error uses regional fallback",
			gen:      &fakeGenerator{err: errors.New("connection refused")},
			query:    salamanca,
			expected: 5500,
			reason:   "price model request failed",
		},
		{
			name:     "Unparseable answer uses default fallback",
			gen:      &fakeGenerator{answer: "No tengo esa información"},
			query:    Query{Region: "Murcia", Locality: "Murcia", Neighborhood: "Centro"},
			expected: 2500,
			reason:   "price model answer not numeric",
		},
		{
			name:     "Missing generator",
			gen:      nil,
			query:    salamanca,
			expected: 5500,
			reason:   "no price model configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(zap.NewNop(), tt.gen, testConfig())
			got := svc.EstimatePricePerSquareMeter(context.Background(), tt.query)
			assert.Equal(t, tt.expected, got.Value)
			assert.Equal(t, SourceFallback, got.Source)
			assert.Equal(t, tt.reason, got.Reason)
			assert.True(t, got.IsFallback())
		})
	}
}

func TestServiceDoesNotCacheFallbacks(t *testing.T) {
	gen := &fakeGenerator{answer: "sin datos"}
	svc := NewService(zap.NewNop(), gen, testConfig())

	svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	gen.mu.Lock()
	gen.answer = "5000"
	gen.mu.Unlock()

	got := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, 5000.0, got.Value)
}

func TestServiceCircuitOpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503")}
	cfg := testConfig()
	cfg.BreakerFailures = 2
	cfg.BreakerCooldown = time.Hour
	svc := NewService(zap.NewNop(), gen, cfg)

	for i := 0; i < 2; i++ {
		got := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
		assert.Equal(t, "price model request failed", got.Reason)
	}

	got := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	assert.Equal(t, "price model circuit open", got.Reason)
	assert.Equal(t, 5500.0, got.Value)
	assert.Equal(t, 2, gen.callCount())
}

func TestServiceCancelledContextFallsBack(t *testing.T) {
	gen := &fakeGenerator{answer: "4000"}
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	svc := NewService(zap.NewNop(), gen, cfg)

	first := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
	require.Equal(t, SourceModel, first.Source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	other := Query{Region: "Galicia", Locality: "Vigo", Neighborhood: "Bouzas", IsSale: true}
	got := svc.EstimatePricePerSquareMeter(ctx, other)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, "rate limit wait aborted", got.Reason)
	assert.Equal(t, 1, gen.callCount())
}

func TestServiceLogsFallbackAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(zap.New(core), &fakeGenerator{err: errors.New("timeout")}, testConfig())

	svc.EstimatePricePerSquareMeter(context.Background(), salamanca)

	entries := logs.FilterMessage("using fallback price per square meter").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "estimator.EstimatePricePerSquareMeter", fields["op"])
	assert.Equal(t, "Madrid", fields["region"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestServiceConcurrentUse(t *testing.T) {
	gen := &fakeGenerator{answer: "3900"}
	svc := NewService(nil, gen, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.EstimatePricePerSquareMeter(context.Background(), salamanca)
			assert.Equal(t, 3900.0, got.Value)
		}()
	}
	wg.Wait()
}
