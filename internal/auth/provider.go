// Package auth is the identity collaborator of the booking core: who is
// signed in, what contact details they keep on file and how a traveler gets
// an account during checkout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/repository"
)

// ErrEmailRequired is returned by SignUp for a blank email.
var ErrEmailRequired = errors.New("email required")

// SignUpMetadata is stored on the profile of a newly created account.
type SignUpMetadata struct {
	FullName string
	Phone    string
	Role     string
}

// Provider is the auth contract consumed by the booking core.  Both
// lookups return nil, nil when there is nothing to return; only real
// failures are errors.
type Provider interface {
	CurrentUser(ctx context.Context, userID uint64) (*model.User, error)
	CurrentProfile(ctx context.Context, userID uint64) (*model.Profile, error)
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*model.User, error)
}

type userStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error)
	Upsert(ctx context.Context, p model.Profile) error
}

// RepoProvider implements Provider on the MySQL repositories.
type RepoProvider struct {
	users      userStore
	profiles   profileStore
	bcryptCost int
}

// NewRepoProvider wires a provider over the user and profile repositories.
func NewRepoProvider(users userStore, profiles profileStore, bcryptCost int) *RepoProvider {
	return &RepoProvider{users: users, profiles: profiles, bcryptCost: bcryptCost}
}

func (p *RepoProvider) CurrentUser(ctx context.Context, userID uint64) (*model.User, error) {
	if userID == 0 {
		return nil, nil
	}
	u, err := p.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, nil
	}
	return &u, nil
}

func (p *RepoProvider) CurrentProfile(ctx context.Context, userID uint64) (*model.Profile, error) {
	if userID == 0 {
		return nil, nil
	}
	prof, err := p.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return prof, nil
}

// SignUp creates a TRAVELER account unless meta names another role, then
// stores the metadata as the account's profile.  A profile write failure
// does not undo the account.
func (p *RepoProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	role := strings.ToUpper(strings.TrimSpace(meta.Role))
	if role != model.RolePartner {
		role = model.RoleTraveler
	}
	id, err := p.users.Create(ctx, email, password, role, p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	first, last := splitName(meta.FullName)
	_ = p.profiles.Upsert(ctx, model.Profile{UserID: id, FirstName: first, LastName: last, Email: email, Phone: meta.Phone})
	return &model.User{ID: id, Email: email, Role: role, IsActive: true}, nil
}

// splitName puts the last word in LastName and everything before it in
// FirstName.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
