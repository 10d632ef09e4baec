package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/complaint-intake/pkg/errors"
)

// Service validates API callers.
type Service interface {
	// Enabled reports whether any credential is configured; when false every request is admitted.
	Enabled() bool
	ValidateFunctionKey(ctx context.Context, key string) (Claims, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	IssueToken(ctx context.Context, subject string) (string, time.Time, error)
}

type service struct {
	cfg    Config
	keys   [][sha256.Size]byte
	now    func() time.Time
	logger *slog.Logger
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([][sha256.Size]byte, 0, len(cfg.FunctionKeys))
	for _, key := range cfg.FunctionKeys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, sha256.Sum256([]byte(key)))
		}
	}
	return &service{
		cfg:    cfg,
		keys:   keys,
		now:    time.Now,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Enabled() bool {
	return len(s.keys) > 0 || strings.TrimSpace(s.cfg.Secret) != ""
}

// ValidateFunctionKey compares digests in constant time so key length does not leak.
func (s *service) ValidateFunctionKey(_ context.Context, key string) (Claims, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "function key missing", nil)
	}
	digest := sha256.Sum256([]byte(key))
	matched := 0
	for _, candidate := range s.keys {
		matched |= subtle.ConstantTimeCompare(digest[:], candidate[:])
	}
	if matched != 1 {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid function key", nil)
	}
	return Claims{Subject: "function-key", Method: MethodFunctionKey}, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	if strings.TrimSpace(s.cfg.Secret) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "bearer tokens are not accepted", nil)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	return Claims{
		Subject:   claims.Subject,
		Method:    MethodJWT,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *service) IssueToken(_ context.Context, subject string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, apperrors.Wrap(apperrors.CodeInvalidInput, "subject cannot be empty", nil)
	}
	if strings.TrimSpace(s.cfg.Secret) == "" {
		return "", time.Time{}, apperrors.Wrap(apperrors.CodeInvalidInput, "token secret not configured", nil)
	}
	now := s.now()
	expires := now.Add(s.cfg.TokenTTL)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(apperrors.CodeUnauthorized, "failed to sign token", err)
	}
	s.logger.Info("token issued", "subject", subject, "expires_at", expires)
	return signed, expires, nil
}
