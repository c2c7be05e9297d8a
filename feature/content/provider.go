package content

import (
	"go.uber.org/zap"

	"modforge/core/pipeline"
	"modforge/core/source"
)

// Provider supplies the standard stage list and keeps the configured source
// order. It satisfies the manager's provider contract.
type Provider struct {
	stages []pipeline.Stage
}

// NewProvider creates a provider running documents, blobs, then links.
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{
		stages: []pipeline.Stage{
			NewDocumentStage(logger),
			NewBlobStage(logger),
			NewLinkStage(logger),
		},
	}
}

// SourceLoadOrder keeps the configured order: sources are mounted in the
// order they appear in configuration, and validation preserves it, so input
// order is the load order. Ties do not arise.
func (p *Provider) SourceLoadOrder(sources []source.Source) []source.Source {
	return sources
}

// LoadingStages returns the stages in execution order.
func (p *Provider) LoadingStages() []pipeline.Stage {
	return p.stages
}
