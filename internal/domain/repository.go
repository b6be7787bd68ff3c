package domain

import "context"

// JobClient defines the interface for talking to the remote comparison job service
type JobClient interface {
	SubmitJob(ctx context.Context, req SubmitRequest) error
	FetchStatus(ctx context.Context) (*JobStatus, error)
	FetchResults(ctx context.Context) (Catalog, error)
}

// ResultExporter defines the interface for triggering a server-side export
type ResultExporter interface {
	ExportResults(ctx context.Context) (*ExportResult, error)
}
