package blob

import (
	"context"

	"github.com/Vitalii2594/zip-password-app/internal/archive"
	"github.com/Vitalii2594/zip-password-app/internal/batch"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

// Sink keeps built archives in a Registry instead of on disk.
type Sink struct {
	registry *Registry
}

func NewSink(r *Registry) *Sink {
	return &Sink{registry: r}
}

func (s *Sink) Store(_ context.Context, _ string, _ int, _ *models.GeneratedArchive, data []byte) (string, error) {
	return s.registry.Mint(data, "application/zip"), nil
}

// Pipeline builds unencrypted, maximally compressed archives held in memory.
// The password is accepted for interface parity but is not applied; every
// result carries archive.UnprotectedNotice.
type Pipeline struct {
	registry     *Registry
	orchestrator *batch.Orchestrator
}

func NewPipeline(registry *Registry, logger *logging.Logger) *Pipeline {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Pipeline{
		registry: registry,
		orchestrator: &batch.Orchestrator{
			Builder: archive.NewBestEffortBuilder(),
			Sink:    NewSink(registry),
			Logger:  logger,
		},
	}
}

func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Generate archives files one by one and exposes each as a blob reference
// in GeneratedArchive.Locator.
func (p *Pipeline) Generate(ctx context.Context, files []models.SourceFile, password string, progress batch.ProgressFunc) (*models.BatchResult, error) {
	return p.orchestrator.Run(ctx, models.ArchiveRequest{Files: files, Password: password}, progress)
}
