package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

type organizerStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeForUser(ctx context.Context, userID string, at time.Time) error
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthConfig tunes organizer sign-in. Access tokens are HS256 JWTs; sessions
// are opaque refresh tokens rotated on every exchange.
type AuthConfig struct {
	Secret        string
	AccessTTL     time.Duration
	SessionTTL    time.Duration
	Issuer        string
	Audience      []string
	SingleSession bool
}

// AuthService signs organizers in and out. Invitees never authenticate.
type AuthService struct {
	users     organizerStore
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

func NewAuthService(users organizerStore, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an active organizer account and opens its first session.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	organizer := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleOrganizer,
		Active:       true,
	}
	if err := s.users.Create(ctx, organizer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		return nil, internalError(err, "failed to create organizer")
	}
	s.logger.Info("organizer registered", zap.String("user_id", organizer.ID))

	return s.signIn(ctx, organizer, req.IP, req.UserAgent)
}

// Login checks credentials. Unknown emails and wrong passwords look the same
// to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	organizer, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	case err != nil:
		return nil, internalError(err, "failed to fetch organizer")
	}
	if bcrypt.CompareHashAndPassword([]byte(organizer.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !organizer.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	return s.signIn(ctx, organizer, req.IP, req.UserAgent)
}

func (s *AuthService) signIn(ctx context.Context, organizer *models.User, ip, userAgent string) (*models.LoginResponse, error) {
	now := s.now()
	if s.config.SingleSession {
		if err := s.sessions.RevokeForUser(ctx, organizer.ID, now); err != nil {
			s.logger.Warn("failed to end previous sessions", zap.String("user_id", organizer.ID), zap.Error(err))
		}
	}

	pair, err := s.openSession(ctx, organizer, ip, userAgent, now)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, organizer.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", organizer.ID), zap.Error(err))
	}

	return &models.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		IssuedAt:     pair.IssuedAt,
		User: models.UserInfo{
			ID:       organizer.ID,
			Email:    organizer.Email,
			FullName: organizer.FullName,
			Role:     organizer.Role,
		},
	}, nil
}

// RefreshToken rotates a session: the presented token is revoked and a new
// pair is returned.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid refresh payload")
	}

	now := s.now()
	session, err := s.lookupSession(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !session.Usable(now) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	organizer, err := s.users.FindByID(ctx, session.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "organizer no longer exists")
	case err != nil:
		return nil, internalError(err, "failed to load organizer")
	}
	if !organizer.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil {
		return nil, internalError(err, "failed to rotate session")
	}
	return s.openSession(ctx, organizer, req.IP, req.UserAgent, now)
}

// Logout revokes one session belonging to userID.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID string) error {
	session, err := s.lookupSession(ctx, refreshToken)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "session does not belong to caller")
	}
	if err := s.sessions.Revoke(ctx, session.ID, s.now()); err != nil {
		return internalError(err, "failed to revoke session")
	}
	return nil
}

// PurgeSessions drops sessions that expired more than a day ago.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", zap.Int64("count", n))
	}
	return n, nil
}

// ValidateToken verifies signature, expiry and, when configured, issuer and
// audience.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) lookupSession(ctx context.Context, raw string) (*models.Session, error) {
	session, err := s.sessions.FindByTokenHash(ctx, digest(raw))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	case err != nil:
		return nil, internalError(err, "failed to load session")
	}
	return session, nil
}

func (s *AuthService) openSession(ctx context.Context, organizer *models.User, ip, userAgent string, now time.Time) (*models.RefreshTokenResponse, error) {
	access, err := s.signAccess(organizer, now)
	if err != nil {
		return nil, internalError(err, "failed to sign access token")
	}
	raw, err := opaqueToken()
	if err != nil {
		return nil, internalError(err, "failed to create refresh token")
	}

	session := &models.Session{
		UserID:    organizer.ID,
		TokenHash: digest(raw),
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, internalError(err, "failed to persist session")
	}

	return &models.RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
		IssuedAt:     now,
	}, nil
}

func (s *AuthService) signAccess(organizer *models.User, now time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   organizer.ID,
		Role:     organizer.Role,
		Email:    organizer.Email,
		FullName: organizer.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   organizer.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func opaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
