package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// Placeholder values for synthesized detail records.
const (
	DefaultCategory     = "IT"
	DefaultIssuer       = "한국산업인력공단"
	DefaultFeeWritten   = 19400
	DefaultFeePractical = 22600
	DefaultPassRate     = "45.2%"
	DefaultDescription  = "해당 분야의 전문 지식과 기술을 검증하는 국가기술자격입니다."
	defaultLevelOrder   = 3
)

// DetailSource loads the detail record for a graph node.
type DetailSource interface {
	LoadDetail(ctx context.Context, node model.Node) (model.CertificationDetail, error)
}

// DetailClient is the part of api.Client the live detail source needs.
type DetailClient interface {
	FetchCertification(ctx context.Context, id int) (model.CertificationDetail, error)
}

// LiveDetailSource fetches the record from the backend by the node's numeric id.
type LiveDetailSource struct {
	Client DetailClient
}

// LoadDetail implements DetailSource. Non-numeric ids fail without a request.
func (s LiveDetailSource) LoadDetail(ctx context.Context, node model.Node) (model.CertificationDetail, error) {
	id, err := node.CertID()
	if err != nil {
		return model.CertificationDetail{}, err
	}
	if s.Client == nil {
		return model.CertificationDetail{}, fmt.Errorf("live detail source: no client configured")
	}
	return s.Client.FetchCertification(ctx, id)
}

// SynthesizedDetailSource builds a placeholder record from what the node
// already carries. It never fails.
type SynthesizedDetailSource struct{}

// LoadDetail implements DetailSource.
func (SynthesizedDetailSource) LoadDetail(_ context.Context, node model.Node) (model.CertificationDetail, error) {
	return Synthesize(node), nil
}

// Synthesize returns the placeholder detail record for node.
func Synthesize(node model.Node) model.CertificationDetail {
	id, _ := node.CertID()
	category := node.Data.Category
	if category == "" {
		category = DefaultCategory
	}
	order := node.Data.Level.Rank()
	if order == 0 {
		order = defaultLevelOrder
	}
	issuer := node.Data.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return model.CertificationDetail{
		CertificationSimple: model.CertificationSimple{
			ID:           id,
			Name:         node.Data.Label,
			CategoryMain: category,
			Level:        node.Data.Level,
			LevelOrder:   order,
		},
		Issuer:        issuer,
		FeeWritten:    model.IntPtr(DefaultFeeWritten),
		FeePractical:  model.IntPtr(DefaultFeePractical),
		PassRate:      DefaultPassRate,
		Description:   DefaultDescription,
		IsActive:      true,
		Prerequisites: []model.CertificationSimple{},
		RequiredFor:   []model.CertificationSimple{},
	}
}

// DetailLoad is the outcome of a best-effort detail load.
type DetailLoad struct {
	Detail   model.CertificationDetail
	Fallback bool
	Cause    error
}

// FallbackDetailSource tries Primary once and falls back to Fallback
// (synthesized when nil) on any failure.
type FallbackDetailSource struct {
	Primary  DetailSource
	Fallback DetailSource
}

// WithSynthesizedFallback wraps primary with the synthesized source.
func WithSynthesizedFallback(primary DetailSource) FallbackDetailSource {
	return FallbackDetailSource{Primary: primary, Fallback: SynthesizedDetailSource{}}
}

// Resolve loads the detail for node and reports whether it was substituted.
func (s FallbackDetailSource) Resolve(ctx context.Context, node model.Node) DetailLoad {
	var cause error
	if s.Primary != nil {
		d, err := s.Primary.LoadDetail(ctx, node)
		if err == nil {
			return DetailLoad{Detail: d}
		}
		cause = err
	} else {
		cause = fmt.Errorf("no primary detail source")
	}
	debug.Log("datasource: detail for node %s unavailable, synthesizing: %v", node.ID, cause)
	metrics.FallbackTotal.WithLabelValues("detail").Inc()

	fb := s.Fallback
	if fb == nil {
		fb = SynthesizedDetailSource{}
	}
	d, err := fb.LoadDetail(ctx, node)
	if err != nil {
		debug.Log("datasource: detail fallback failed for node %s: %v", node.ID, err)
		d = Synthesize(node)
	}
	return DetailLoad{Detail: d, Fallback: true, Cause: cause}
}

// LoadDetail implements DetailSource. It never returns an error.
func (s FallbackDetailSource) LoadDetail(ctx context.Context, node model.Node) (model.CertificationDetail, error) {
	return s.Resolve(ctx, node).Detail, nil
}
