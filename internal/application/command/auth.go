package command

import (
	"context"
	"time"

	"github.com/lingoquest/lingoquest-backend/internal/domain/shared"
	"github.com/lingoquest/lingoquest-backend/internal/domain/user"
	"github.com/lingoquest/lingoquest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH COMMANDS
// Registration, login, and logout. A login creates a server-side session row
// whose ID becomes the token's jti, so logout can revoke the token before it
// expires.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSessionTTL is how long an issued session lives.
const DefaultSessionTTL = 24 * time.Hour

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare returns ErrInvalidCredentials on mismatch.
	Compare(hash, password string) error
}

// TokenIssuer signs access tokens bound to a session.
type TokenIssuer interface {
	Issue(session *user.Session) (string, error)
}

// SessionCache is the write side of the live-session cache. Implementations
// may be backed by Redis; a nil cache is allowed and skipped.
type SessionCache interface {
	Put(ctx context.Context, session *user.Session) error
	Drop(ctx context.Context, sessionID string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Register
// ─────────────────────────────────────────────────────────────────────────────

// RegisterCommand creates a new user account.
type RegisterCommand struct {
	Email    string
	Username string
	Password string
}

// Validate validates the command.
func (c RegisterCommand) Validate() error {
	if c.Email == "" {
		return shared.NewDomainError("command", "Register", shared.ErrInvalidInput, "email is required")
	}
	if c.Username == "" {
		return shared.NewDomainError("command", "Register", shared.ErrInvalidInput, "username is required")
	}
	if len(c.Password) < MinPasswordLength {
		return shared.NewDomainError("command", "Register", shared.ErrInvalidInput, "password must be at least 8 characters")
	}
	return nil
}

// RegisterResult describes the created account.
type RegisterResult struct {
	UserID    string
	Email     string
	Username  string
	CreatedAt time.Time
}

// RegisterHandler handles RegisterCommand.
type RegisterHandler struct {
	userRepo       user.Repository
	hasher         PasswordHasher
	eventPublisher shared.EventPublisher
	idGen          IDGenerator
	log            *logger.Logger
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(
	userRepo user.Repository,
	hasher PasswordHasher,
	eventPublisher shared.EventPublisher,
	idGen IDGenerator,
	log *logger.Logger,
) *RegisterHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RegisterHandler{
		userRepo:       userRepo,
		hasher:         hasher,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		log:            log.With(logger.Component("register")),
	}
}

// Handle creates the user with a hashed password.
func (h *RegisterHandler) Handle(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, shared.WrapError("command", "Register", shared.ErrInternal, "failed to hash password", err)
	}

	u, err := user.NewUser(h.idGen.NewID(), user.Email(cmd.Email), user.Username(cmd.Username), hash)
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := h.eventPublisher.Publish(shared.NewUserEvent(shared.EventUserRegistered, u.ID, u.Username.String())); err != nil {
		h.log.Warn("failed to publish event", logger.Err(err))
	}

	h.log.Info("user registered",
		logger.UserID(u.ID),
		logger.String("username", u.Username.String()))

	return &RegisterResult{
		UserID:    u.ID,
		Email:     u.Email.String(),
		Username:  u.Username.String(),
		CreatedAt: u.CreatedAt,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Login
// ─────────────────────────────────────────────────────────────────────────────

// LoginCommand authenticates a user by email and password.
type LoginCommand struct {
	Email    string
	Password string
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	if c.Email == "" {
		return shared.NewDomainError("command", "Login", shared.ErrInvalidInput, "email is required")
	}
	if c.Password == "" {
		return shared.NewDomainError("command", "Login", shared.ErrInvalidInput, "password is required")
	}
	return nil
}

// LoginResult contains the issued token and a snapshot of the account.
type LoginResult struct {
	Token      string
	SessionID  string
	ExpiresAt  time.Time
	UserID     string
	Username   string
	Experience int
	Level      int
	Streak     int
}

// LoginHandler handles LoginCommand.
type LoginHandler struct {
	userRepo       user.Repository
	sessionRepo    user.SessionRepository
	sessionCache   SessionCache
	hasher         PasswordHasher
	tokens         TokenIssuer
	eventPublisher shared.EventPublisher
	idGen          IDGenerator
	sessionTTL     time.Duration
	log            *logger.Logger
}

// NewLoginHandler creates a new LoginHandler. sessionCache may be nil;
// sessionTTL <= 0 falls back to DefaultSessionTTL.
func NewLoginHandler(
	userRepo user.Repository,
	sessionRepo user.SessionRepository,
	sessionCache SessionCache,
	hasher PasswordHasher,
	tokens TokenIssuer,
	eventPublisher shared.EventPublisher,
	idGen IDGenerator,
	sessionTTL time.Duration,
	log *logger.Logger,
) *LoginHandler {
	if log == nil {
		log = logger.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &LoginHandler{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		sessionCache:   sessionCache,
		hasher:         hasher,
		tokens:         tokens,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		sessionTTL:     sessionTTL,
		log:            log.With(logger.Component("login")),
	}
}

// Handle verifies credentials and issues a session-backed token. Unknown
// email and wrong password both return ErrInvalidCredentials.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByEmail(ctx, user.Email(cmd.Email))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := h.hasher.Compare(u.PasswordHash, cmd.Password); err != nil {
		return nil, err
	}

	session := user.NewSession(h.idGen.NewID(), u.ID, h.sessionTTL)
	if err := h.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if h.sessionCache != nil {
		if err := h.sessionCache.Put(ctx, session); err != nil {
			h.log.Warn("failed to cache session", logger.Err(err))
		}
	}

	token, err := h.tokens.Issue(session)
	if err != nil {
		return nil, shared.WrapError("command", "Login", shared.ErrInternal, "failed to issue token", err)
	}

	if err := h.eventPublisher.Publish(shared.NewUserEvent(shared.EventUserLoggedIn, u.ID, u.Username.String())); err != nil {
		h.log.Warn("failed to publish event", logger.Err(err))
	}

	h.log.Info("user logged in", logger.UserID(u.ID))

	return &LoginResult{
		Token:      token,
		SessionID:  session.ID,
		ExpiresAt:  session.ExpiresAt,
		UserID:     u.ID,
		Username:   u.Username.String(),
		Experience: int(u.Experience),
		Level:      int(u.Level()),
		Streak:     u.Streak,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Logout
// ─────────────────────────────────────────────────────────────────────────────

// LogoutCommand revokes the session referenced by the caller's token.
type LogoutCommand struct {
	SessionID string
}

// Validate validates the command.
func (c LogoutCommand) Validate() error {
	if c.SessionID == "" {
		return shared.NewDomainError("command", "Logout", shared.ErrInvalidInput, "session_id is required")
	}
	return nil
}

// LogoutHandler handles LogoutCommand.
type LogoutHandler struct {
	sessionRepo  user.SessionRepository
	sessionCache SessionCache
	log          *logger.Logger
}

// NewLogoutHandler creates a new LogoutHandler. sessionCache may be nil.
func NewLogoutHandler(sessionRepo user.SessionRepository, sessionCache SessionCache, log *logger.Logger) *LogoutHandler {
	if log == nil {
		log = logger.Default()
	}
	return &LogoutHandler{
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		log:          log.With(logger.Component("logout")),
	}
}

// Handle revokes the session and evicts it from the cache. Logging out an
// already-dead session is idempotent.
func (h *LogoutHandler) Handle(ctx context.Context, cmd LogoutCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.sessionRepo.Revoke(ctx, cmd.SessionID); err != nil {
		if shared.IsAuth(err) {
			return nil
		}
		return err
	}

	if h.sessionCache != nil {
		if err := h.sessionCache.Drop(ctx, cmd.SessionID); err != nil {
			h.log.Warn("failed to evict session from cache", logger.Err(err))
		}
	}

	return nil
}
