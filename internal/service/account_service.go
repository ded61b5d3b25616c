package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/storefront-backend/internal/model"
	"github.com/iliyamo/storefront-backend/internal/repository"
	"github.com/iliyamo/storefront-backend/internal/utils"
)

const minPasswordLen = 6

// invalidCredentials is the single message for every login or password
// check failure, so callers cannot tell which part was wrong.
const invalidCredentials = "invalid email or password"

// AccountService manages registration, login and profile edits.
type AccountService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAccountService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, log logrus.FieldLogger) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher, tokens: tokens, log: log, now: time.Now}
}

// RegisterInput is the payload of a registration or admin account creation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Session is the result of a successful login.
type Session struct {
	Account model.Account     `json:"account"`
	Access  utils.AccessToken `json:"access"`
}

// Register creates an account.  The email is the exact equality key: it
// is trimmed but not case-folded.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return model.Account{}, fail(ErrInvalidRequest, "name is required")
	}
	if !isValidEmail(in.Email) {
		return model.Account{}, fail(ErrInvalidRequest, "a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return model.Account{}, fail(ErrInvalidRequest, "password must be at least %d characters", minPasswordLen)
	}
	if !in.Role.Valid() {
		return model.Account{}, fail(ErrInvalidRequest, "unknown role %q", in.Role)
	}

	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return model.Account{}, fail(ErrConflict, "email already in use")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.Account{}, err
	}
	now := s.now().UTC()
	a := model.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, &a); err != nil {
		// the unique index catches a concurrent registration of the same email
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Account{}, fail(ErrConflict, "email already in use")
		}
		return model.Account{}, err
	}
	s.log.WithFields(logrus.Fields{"account_id": a.ID, "role": a.Role}).Info("account registered")
	return a, nil
}

// Login verifies credentials within a role scope and issues an access
// token.  An account of a different role is treated as absent.
func (s *AccountService) Login(ctx context.Context, email, password string, scope model.Role) (Session, error) {
	a, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, fail(ErrInvalidCredentials, invalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	if a.Role != scope || !s.hasher.Verify(a.PasswordHash, password) {
		return Session{}, fail(ErrInvalidCredentials, invalidCredentials)
	}
	tok, err := s.tokens.Issue(a.ID, string(a.Role))
	if err != nil {
		return Session{}, err
	}
	return Session{Account: a, Access: tok}, nil
}

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, id string) (model.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, fail(ErrNotFound, "account %s not found", id)
	}
	return a, err
}

// ChangePassword re-hashes the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	a, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(a.PasswordHash, current) {
		return fail(ErrInvalidCredentials, invalidCredentials)
	}
	if len(next) < minPasswordLen {
		return fail(ErrInvalidRequest, "password must be at least %d characters", minPasswordLen)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	a.UpdatedAt = s.now().UTC()
	return s.update(ctx, a)
}

// UpdateProfile applies a partial name/email edit.  A new email must not
// belong to another account.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, up model.ProfileUpdate) (model.Account, error) {
	a, err := s.Get(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if name == "" {
			return model.Account{}, fail(ErrInvalidRequest, "name must not be empty")
		}
		a.Name = name
	}
	if up.Email != nil {
		email := strings.TrimSpace(*up.Email)
		if !isValidEmail(email) {
			return model.Account{}, fail(ErrInvalidRequest, "a valid email is required")
		}
		if email != a.Email {
			other, err := s.accounts.GetByEmail(ctx, email)
			if err == nil && other.ID != a.ID {
				return model.Account{}, fail(ErrConflict, "email already in use")
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return model.Account{}, err
			}
		}
		a.Email = email
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// List returns every account, or those of one role when role is set.
func (s *AccountService) List(ctx context.Context, role model.Role) ([]model.Account, error) {
	if role != "" && !role.Valid() {
		return nil, fail(ErrInvalidRequest, "unknown role %q", role)
	}
	return s.accounts.List(ctx, role)
}

// SetRole changes an account's role.  Admin only.
func (s *AccountService) SetRole(ctx context.Context, accountID string, role model.Role) (model.Account, error) {
	if !role.Valid() {
		return model.Account{}, fail(ErrInvalidRequest, "unknown role %q", role)
	}
	a, err := s.Get(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	a.Role = role
	a.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, a); err != nil {
		return model.Account{}, err
	}
	s.log.WithFields(logrus.Fields{"account_id": a.ID, "role": role}).Info("account role changed")
	return a, nil
}

// Delete removes an account.  Its orders are kept.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	err := s.accounts.Delete(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "account %s not found", accountID)
	}
	if err == nil {
		s.log.WithField("account_id", accountID).Info("account deleted")
	}
	return err
}

// EnsureAdmin creates an admin account unless the email is already
// registered.  It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.Register(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: model.RoleAdmin})
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	return err == nil, err
}

func (s *AccountService) update(ctx context.Context, a model.Account) error {
	err := s.accounts.Update(ctx, a)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(ErrNotFound, "account %s not found", a.ID)
	case errors.Is(err, repository.ErrEmailExists):
		return fail(ErrConflict, "email already in use")
	}
	return err
}

// isValidEmail provides a basic check for email format.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.ContainsAny(email, " \t") {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}
