package usecase

import (
	"context"
	"fmt"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/pkg/logging"
)

// ExportRequester asks the job service to export the latest results.
// It holds no state and does not interact with search sessions.
type ExportRequester struct {
	exporter domain.ResultExporter
	log      *logging.Logger
}

// NewExportRequester creates an export requester
func NewExportRequester(exporter domain.ResultExporter, log *logging.Logger) *ExportRequester {
	if log == nil {
		log = logging.NewNop()
	}
	return &ExportRequester{
		exporter: exporter,
		log:      log.With("component", "export"),
	}
}

// Export triggers one export and returns the file the service wrote
func (r *ExportRequester) Export(ctx context.Context) (*domain.ExportResult, error) {
	result, err := r.exporter.ExportResults(ctx)
	if err != nil {
		r.log.Warn("export failed", "err", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrExport, err)
	}

	r.log.Info("results exported", "filename", result.Filename, "count", result.Count)
	return result, nil
}
