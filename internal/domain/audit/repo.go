package audit

import (
	"context"

	"github.com/telecare/telecare/internal/platform/db"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
}

type repoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository { return &repoPG{q: q} }

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO data_access_logs (user_id, record_type, record_id, action, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id::text, accessed_at`,
		e.UserID, e.RecordType, e.RecordID, e.Action, e.IPAddress, e.UserAgent,
	).Scan(&e.ID, &e.AccessedAt)
}
