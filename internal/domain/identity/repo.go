package identity

import (
	"context"

	"github.com/google/uuid"
)

type IdentityRepository interface {
	// Create stores ident and sets its ID. A duplicate email yields
	// ErrEmailTaken.
	Create(ctx context.Context, ident *Identity) error
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
}
