package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/telecare/telecare/internal/platform/db"
)

// =========== Identity Repository ===========

type identityRepoPG struct{ q db.Querier }

func NewIdentityRepoPG(q db.Querier) IdentityRepository { return &identityRepoPG{q: q} }

func (r *identityRepoPG) Create(ctx context.Context, ident *Identity) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO identities (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		ident.Email, ident.PasswordHash,
	).Scan(&ident.ID, &ident.CreatedAt)
	if db.UniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *identityRepoPG) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	var ident Identity
	err := r.q.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`,
		email,
	).Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (r *identityRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	return err
}

// =========== Profile Repository ===========

type profileRepoPG struct{ q db.Querier }

func NewProfileRepoPG(q db.Querier) ProfileRepository { return &profileRepoPG{q: q} }

const profileCols = `id, email, full_name, role, phone, date_of_birth::text, specialization, license_number,
	created_at, updated_at`

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role, phone, date_of_birth, specialization, license_number)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
		RETURNING created_at, updated_at`,
		p.ID, p.Email, p.FullName, p.Role, p.Phone, p.DateOfBirth, p.Specialization, p.LicenseNumber,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.q.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE id = $1`, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.Phone, &p.DateOfBirth, &p.Specialization, &p.LicenseNumber,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
