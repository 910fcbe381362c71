package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/security"
)

const defaultUserPageSize = 10

// Identity covers registration, login and account management.
type Identity struct {
	users  UserStore
	tokens *security.TokenService
}

func NewIdentity(users UserStore, tokens *security.TokenService) *Identity {
	return &Identity{users: users, tokens: tokens}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is the identity + fresh bearer token returned by register/login.
type AuthResult struct {
	User  *domain.User
	Token string
}

func (uc *Identity) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	exists, err := uc.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user already exists", domain.ErrConflict)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err)
	}

	now := time.Now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := uc.users.Insert(ctx, u); err != nil {
		return nil, err
	}

	token, err := uc.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (uc *Identity) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil || !security.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrForbidden)
	}

	now := time.Now()
	if err := uc.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now

	token, err := uc.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

// Authenticate resolves a bearer token to an active user. It backs the
// auth middleware.
func (uc *Identity) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	userID, err := uc.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrForbidden)
	}
	return u, nil
}

func (uc *Identity) Profile(ctx context.Context, caller *domain.User) (*domain.User, error) {
	u, err := uc.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return u, nil
}

type UpdateProfileInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    *string
}

func (uc *Identity) UpdateProfile(ctx context.Context, caller *domain.User, in UpdateProfileInput) (*domain.User, error) {
	u, err := uc.Profile(ctx, caller)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != u.Email {
			exists, err := uc.users.ExistsByEmailOrUsername(ctx, email, "")
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, fmt.Errorf("%w: email already in use", domain.ErrConflict)
			}
			u.Email = email
		}
	}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	u.UpdatedAt = time.Now()

	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := uc.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers is admin-only at the route level.
func (uc *Identity) ListUsers(ctx context.Context, page, limit int) (Page[domain.User], error) {
	page, limit = clampPaging(page, limit, defaultUserPageSize)
	items, total, err := uc.users.List(ctx, page, limit)
	if err != nil {
		return Page[domain.User]{}, err
	}
	return newPage(items, total, page, limit), nil
}

func (uc *Identity) DeleteUser(ctx context.Context, id string) error {
	u, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return uc.users.Delete(ctx, id)
}
