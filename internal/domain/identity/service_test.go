package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
	"github.com/telecare/telecare/internal/platform/cache"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// -- Mock Repositories --

type mockIdentityRepo struct {
	store     map[uuid.UUID]*Identity
	createErr error
	deleteErr error
	noID      bool
	deleted   []uuid.UUID
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{store: make(map[uuid.UUID]*Identity)}
}

func (m *mockIdentityRepo) Create(_ context.Context, ident *Identity) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.store {
		if existing.Email == ident.Email {
			return ErrEmailTaken
		}
	}
	if m.noID {
		return nil
	}
	ident.ID = uuid.New()
	ident.CreatedAt = time.Now()
	m.store[ident.ID] = ident
	return nil
}

func (m *mockIdentityRepo) GetByEmail(_ context.Context, email string) (*Identity, error) {
	for _, ident := range m.store {
		if ident.Email == email {
			return ident, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockIdentityRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.store, id)
	return nil
}

type mockProfileRepo struct {
	store     map[uuid.UUID]*Profile
	createErr error
	getErr    error
	gets      int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{store: make(map[uuid.UUID]*Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.store[p.ID] = p
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

type testEnv struct {
	svc        *Service
	identities *mockIdentityRepo
	profiles   *mockProfileRepo
	cache      *cache.Memory
}

func newTestEnv() *testEnv {
	env := &testEnv{
		identities: newMockIdentityRepo(),
		profiles:   newMockProfileRepo(),
		cache:      cache.NewMemory(),
	}
	env.svc = NewService(env.identities, env.profiles, auth.NewIssuer(testSecret, time.Hour), env.cache, time.Minute, zerolog.Nop())
	return env
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:    "Jane.Doe@example.com",
		Password: "s3cure-pass",
		UserData: UserData{FullName: "Jane Doe", Role: auth.RoleDoctor},
	}
}

func TestService_Register(t *testing.T) {
	env := newTestEnv()

	id, err := env.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected a user id")
	}

	ident := env.identities.store[id]
	if ident == nil || ident.Email != "jane.doe@example.com" {
		t.Fatalf("expected normalized email identity, got %+v", ident)
	}
	if ident.PasswordHash == "s3cure-pass" || !auth.CheckPassword(ident.PasswordHash, "s3cure-pass") {
		t.Error("expected bcrypt password hash")
	}

	profile := env.profiles.store[id]
	if profile == nil {
		t.Fatal("expected profile to be created")
	}
	if profile.Role != auth.RoleDoctor || profile.FullName != "Jane Doe" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestService_Register_DefaultsToPatient(t *testing.T) {
	env := newTestEnv()
	req := validRegistration()
	req.UserData.Role = ""

	id, err := env.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.profiles.store[id].Role != auth.RolePatient {
		t.Errorf("expected patient role, got %s", env.profiles.store[id].Role)
	}
}

func TestService_Register_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
	}{
		{"invalid email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"empty email", func(r *RegisterRequest) { r.Email = "  " }},
		{"display name", func(r *RegisterRequest) { r.Email = "Bob <Bob@Example.com>" }},
		{"angle brackets", func(r *RegisterRequest) { r.Email = "<bob@example.com>" }},
		{"quoted name", func(r *RegisterRequest) { r.Email = `"Bob" <bob@example.com>` }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
		{"admin role", func(r *RegisterRequest) { r.UserData.Role = auth.RoleAdmin }},
		{"unknown role", func(r *RegisterRequest) { r.UserData.Role = "nurse" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			req := validRegistration()
			tt.mutate(&req)

			_, err := env.svc.Register(context.Background(), req)
			var rejected *RejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("expected RejectedError, got %v", err)
			}
			if len(env.identities.store) != 0 {
				t.Error("expected no identity to be created")
			}
		})
	}
}

func TestService_Register_StoresBareAddress(t *testing.T) {
	env := newTestEnv()
	req := validRegistration()
	req.Email = "  Bob@Example.com "

	id, err := env.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.identities.store[id].Email; got != "bob@example.com" {
		t.Errorf("expected bob@example.com, got %q", got)
	}
	if got := env.profiles.store[id].Email; got != "bob@example.com" {
		t.Errorf("expected profile email bob@example.com, got %q", got)
	}

	if _, err := env.svc.Login(context.Background(), "bob@example.com", req.Password); err != nil {
		t.Errorf("expected login with bare address, got %v", err)
	}

	dup := validRegistration()
	dup.Email = "Bob <bob@example.com>"
	if _, err := env.svc.Register(context.Background(), dup); err == nil {
		t.Error("expected named form of a registered mailbox to be rejected")
	}
	if len(env.identities.store) != 1 {
		t.Errorf("expected a single identity, got %d", len(env.identities.store))
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	if _, err := env.svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	req := validRegistration()
	req.Email = "jane.doe@EXAMPLE.com"
	_, err := env.svc.Register(context.Background(), req)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
}

func TestService_Register_NoIdentity(t *testing.T) {
	env := newTestEnv()
	env.identities.noID = true

	_, err := env.svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
	if len(env.profiles.store) != 0 {
		t.Error("expected no profile to be created")
	}
}

func TestService_Register_ProfileFailureCompensates(t *testing.T) {
	env := newTestEnv()
	env.profiles.createErr = errors.New("insert failed")

	_, err := env.svc.Register(context.Background(), validRegistration())
	if err == nil {
		t.Fatal("expected error")
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		t.Fatal("profile failure must not be reported as a rejection")
	}
	if len(env.identities.deleted) != 1 {
		t.Fatalf("expected compensating delete, got %d deletes", len(env.identities.deleted))
	}
	if len(env.identities.store) != 0 {
		t.Error("expected identity to be removed")
	}
}

func TestService_Register_CompensationFailureStillFails(t *testing.T) {
	env := newTestEnv()
	env.profiles.createErr = errors.New("insert failed")
	env.identities.deleteErr = errors.New("delete failed")

	_, err := env.svc.Register(context.Background(), validRegistration())
	if err == nil || !errors.Is(err, env.profiles.createErr) {
		t.Fatalf("expected profile error to be returned, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	env := newTestEnv()
	id, err := env.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := env.svc.Login(context.Background(), " JANE.DOE@example.com", "s3cure-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != id || session.Role != auth.RoleDoctor {
		t.Errorf("unexpected session: %+v", session)
	}

	claims, err := auth.ParseToken(session.Token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != auth.RoleDoctor {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(session.ExpiresAt.Truncate(time.Second)) {
		t.Errorf("expected token expiry %s, got %s", session.ExpiresAt, claims.ExpiresAt.Time)
	}
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv()
	if _, err := env.svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"jane.doe@example.com", "wrong-password"},
		{"nobody@example.com", "s3cure-pass"},
		{"", ""},
	} {
		_, err := env.svc.Login(context.Background(), tc.email, tc.password)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%q/%q: expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestService_RoleOf_Caches(t *testing.T) {
	env := newTestEnv()
	id, err := env.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 3; i++ {
		role, err := env.svc.RoleOf(context.Background(), id.String())
		if err != nil {
			t.Fatalf("RoleOf: %v", err)
		}
		if role != auth.RoleDoctor {
			t.Errorf("expected doctor, got %s", role)
		}
	}
	if env.profiles.gets != 1 {
		t.Errorf("expected 1 profile lookup, got %d", env.profiles.gets)
	}
	if _, ok, _ := env.cache.Get(context.Background(), "role:"+id.String()); !ok {
		t.Error("expected role to be cached under role:<id>")
	}
}

func TestService_RoleOf_Errors(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.RoleOf(context.Background(), "dev-user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-uuid id, got %v", err)
	}
	if _, err := env.svc.RoleOf(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}

	env.profiles.getErr = errors.New("db down")
	if _, err := env.svc.RoleOf(context.Background(), uuid.NewString()); !errors.Is(err, env.profiles.getErr) {
		t.Errorf("expected db error, got %v", err)
	}
}

func TestService_RoleOf_WithoutCache(t *testing.T) {
	profiles := newMockProfileRepo()
	id := uuid.New()
	profiles.store[id] = &Profile{ID: id, Role: auth.RolePatient}
	svc := NewService(newMockIdentityRepo(), profiles, auth.NewIssuer(testSecret, time.Hour), nil, 0, zerolog.Nop())

	role, err := svc.RoleOf(context.Background(), id.String())
	if err != nil || role != auth.RolePatient {
		t.Fatalf("expected patient, got %q (%v)", role, err)
	}
}
