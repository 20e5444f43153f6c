// Package estimator resolves a locality and neighborhood into a typical
// closing price per square meter by asking a generative text model.
//
// Estimators never fail: any problem reaching or understanding the model is
// replaced by a fallback price, so callers always receive a positive number.
package estimator

import (
	"context"
	"strings"

	"github.com/iwvelando/inmoreal/pkg/constants"
)

// Query identifies the market being priced.
type Query struct {
	Region       string `json:"region"`
	Locality     string `json:"locality"`
	Neighborhood string `json:"neighborhood"`
	IsSale       bool   `json:"isSale"`
}

func (q Query) cacheKey() string {
	side := "purchase"
	if q.IsSale {
		side = "sale"
	}
	return strings.ToLower(strings.Join([]string{q.Region, q.Locality, q.Neighborhood, side}, "|"))
}

// Source records where an estimate came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
	SourceFixed    Source = "fixed"
	SourceConfig   Source = "config"
)

// Estimate is a price per square meter together with its provenance.
type Estimate struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
	// Reason explains why a fallback was used. Empty otherwise.
	Reason string `json:"reason,omitempty"`
}

// IsFallback reports whether the value is a fallback constant rather than a
// parsed model answer.
func (e Estimate) IsFallback() bool {
	return e.Source == SourceFallback || e.Source == SourceFixed
}

// Estimator produces a price per square meter for a query.
type Estimator interface {
	EstimatePricePerSquareMeter(ctx context.Context, q Query) Estimate
}

// TextGenerator sends a prompt to a generative text service and returns its
// free-text answer.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fallbacks holds the prices used when no estimate can be obtained.
type Fallbacks struct {
	Default  float64
	ByRegion map[string]float64
}

// For returns the fallback price for region.
func (f Fallbacks) For(region string) float64 {
	if v, ok := f.ByRegion[region]; ok && v > 0 {
		return v
	}
	if f.Default > 0 {
		return f.Default
	}
	return constants.DefaultFallbackPricePerSquareMeter
}

// Fixed always answers with the fallback price. It is used when no model is
// configured.
type Fixed struct {
	Fallbacks Fallbacks
}

// EstimatePricePerSquareMeter implements Estimator.
func (f Fixed) EstimatePricePerSquareMeter(_ context.Context, q Query) Estimate {
	return Estimate{Value: f.Fallbacks.For(q.Region), Source: SourceFixed, Reason: "no price model configured"}
}
