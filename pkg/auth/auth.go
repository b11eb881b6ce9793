package auth

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/pizzashop/pkg/config"
	"github.com/example/pizzashop/pkg/fault"
	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/session"
)

// UserRecord is one stored credential record.
type UserRecord struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"display_name"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Credentials is the identity provider's user directory.
type Credentials interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	Insert(ctx context.Context, rec *UserRecord) error
}

// FlagStore persists the admin bypass flag across process restarts.
type FlagStore interface {
	SetAdminSession(ctx context.Context) error
	AdminSession(ctx context.Context) (bool, error)
	ClearAdminSession(ctx context.Context) error
}

// Service implements sign-in, sign-up and sign-out against the credential
// directory and publishes the resulting identity into the session context.
// Consumers observe the live identity stream via session.Context.Watch.
type Service struct {
	creds  Credentials
	flags  FlagStore
	sess   *session.Context
	logger *zap.Logger
	cfg    config.AuthConfig
	hash   func(password string) ([]byte, error)
}

func NewService(creds Credentials, flags FlagStore, sess *session.Context, logger *zap.Logger, cfg config.AuthConfig) *Service {
	return &Service{
		creds:  creds,
		flags:  flags,
		sess:   sess,
		logger: logger,
		cfg:    cfg,
		hash: func(password string) ([]byte, error) {
			return bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
		},
	}
}

// SignUp creates a new customer account and signs it in. The display name
// falls back to the email's local part.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < s.cfg.MinPasswordLen {
		return nil, fault.NewAuthError(fault.AuthWeakPassword, nil)
	}

	existing, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return nil, fault.NewAuthError(fault.AuthUnknown, err)
	}
	if existing != nil {
		return nil, fault.NewAuthError(fault.AuthEmailInUse, nil)
	}

	if displayName == "" {
		displayName = localPart(email)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fault.NewAuthError(fault.AuthUnknown, err)
	}

	rec := &UserRecord{
		ID:           email,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.creds.Insert(ctx, rec); err != nil {
		return nil, fault.NewAuthError(fault.AuthUnknown, err)
	}

	identity := identityFor(displayName)
	s.logger.Info("customer signed up", zap.String("email", email), zap.String("identity", identity.ID))
	s.sess.SetIdentity(identity)
	return identity, nil
}

// SignIn authenticates an existing account and installs its identity.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	rec, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return nil, fault.NewAuthError(fault.AuthUnknown, err)
	}
	if rec == nil {
		return nil, fault.NewAuthError(fault.AuthUserNotFound, nil)
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return nil, fault.NewAuthError(fault.AuthWrongPassword, nil)
	}

	displayName := rec.DisplayName
	if displayName == "" {
		displayName = localPart(email)
	}
	if displayName == "" {
		displayName = "User"
	}

	identity := identityFor(displayName)
	s.logger.Info("customer signed in", zap.String("identity", identity.ID))
	s.sess.SetIdentity(identity)
	return identity, nil
}

// SignInAsAdmin installs the distinguished admin identity without touching
// the credential directory and persists the bypass flag.
func (s *Service) SignInAsAdmin(ctx context.Context) (*models.Identity, error) {
	if err := s.flags.SetAdminSession(ctx); err != nil {
		s.logger.Warn("failed to persist admin session flag", zap.Error(err))
	}
	identity := models.AdminIdentity()
	s.logger.Info("admin signed in via bypass")
	s.sess.SetIdentity(identity)
	return identity, nil
}

// SignOut clears the active identity and the persisted bypass flag.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.flags.ClearAdminSession(ctx); err != nil {
		s.logger.Warn("failed to clear admin session flag", zap.Error(err))
	}
	s.sess.SetIdentity(nil)
	return nil
}

// Restore re-installs the admin identity at process start when a persisted
// bypass flag exists.
func (s *Service) Restore(ctx context.Context) error {
	active, err := s.flags.AdminSession(ctx)
	if err != nil {
		return err
	}
	if active {
		s.logger.Info("restored admin session from persisted flag")
		s.sess.SetIdentity(models.AdminIdentity())
	}
	return nil
}

func identityFor(displayName string) *models.Identity {
	return &models.Identity{
		ID:          displayName,
		DisplayName: displayName,
		Role:        models.ResolveRole(displayName),
	}
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fault.NewAuthError(fault.AuthInvalidEmail, nil)
	}
	return nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
