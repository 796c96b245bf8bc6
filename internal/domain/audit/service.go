package audit

import (
	"context"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "audit").Logger()}
}

// LogDataAccess records that a user touched a record. A failed write is
// logged and dropped so that auditing never fails the caller's request.
func (s *Service) LogDataAccess(ctx context.Context, e *Entry) {
	if err := s.repo.Insert(ctx, e); err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", e.UserID).
			Str("record_type", e.RecordType).
			Str("record_id", e.RecordID).
			Str("action", e.Action).
			Msg("write data access log")
	}
}
