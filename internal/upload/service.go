package upload

import (
	"context"
	"log/slog"
)

// Service runs the complete pipeline: validation, then ingestion.
type Service struct {
	policy   Policy
	checks   []Check
	ingestor *Ingestor
}

// NewService creates a Service applying policy with the default check chain.
func NewService(policy Policy, ingestor *Ingestor) *Service {
	return &Service{
		policy:   policy,
		checks:   DefaultChecks(),
		ingestor: ingestor,
	}
}

// Policy returns the validation policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Upload validates req and, when accepted, ingests it into project. A
// rejected batch writes nothing. An ingestion failure returns the files that
// were stored before it together with the error.
func (s *Service) Upload(ctx context.Context, project string, req Request) ([]StoredFile, error) {
	if err := Validate(req, s.policy, s.checks...); err != nil {
		slog.Debug("Upload rejected", "project", project, "err", err)
		return nil, err
	}
	return s.ingestor.Ingest(ctx, project, req)
}
