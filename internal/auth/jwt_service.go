package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is used when no access token lifetime is configured.
const DefaultAccessTokenTTL = 24 * time.Hour

// Sentinel errors returned by ValidateAccessToken. The underlying jwt error
// stays wrapped alongside them.
var (
	ErrInvalidToken = errors.New("jwt: invalid token")
	ErrExpiredToken = errors.New("jwt: token expired")
)

// JWTConfig configures a JWTService. PreviousSecrets keeps tokens signed
// before a secret rotation valid until they expire; new tokens always use Secret.
type JWTConfig struct {
	Secret          string
	PreviousSecrets []string
	Issuer          string
	AccessTokenTTL  time.Duration
	Clock           func() time.Time
}

// Claims identifies the account a session belongs to. The token carries no
// role or chain: those are read from the account on every request.
type Claims struct {
	AccountID string `json:"uid"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenInput describes the session to issue.
type AccessTokenInput struct {
	AccountID string
	Email     string
	Audience  []string
}

// JWTService signs and verifies session tokens with HS256.
type JWTService struct {
	keys   [][]byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewJWTService validates cfg and returns a ready service.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	s := &JWTService{
		keys:   [][]byte{[]byte(cfg.Secret)},
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenTTL,
		now:    cfg.Clock,
	}
	for _, previous := range cfg.PreviousSecrets {
		if previous != "" && previous != cfg.Secret {
			s.keys = append(s.keys, []byte(previous))
		}
	}
	if s.ttl <= 0 {
		s.ttl = DefaultAccessTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	s.parser = jwt.NewParser(opts...)
	return s, nil
}

// TTL reports the lifetime applied to newly issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateAccessToken signs a session token for input.AccountID with the current secret.
func (s *JWTService) GenerateAccessToken(input AccessTokenInput) (string, error) {
	if input.AccountID == "" {
		return "", errors.New("jwt: account id is required")
	}

	issued := s.now()
	claims := Claims{
		AccountID: input.AccountID,
		Email:     input.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   input.AccountID,
			Issuer:    s.issuer,
			Audience:  input.Audience,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.keys[0])
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken verifies token against the current and previous
// secrets. Failures wrap ErrExpiredToken or ErrInvalidToken.
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	var lastErr error
	for _, key := range s.keys {
		claims, err := s.parse(token, key)
		if err == nil {
			return claims, nil
		}
		lastErr = err
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	if errors.Is(lastErr, jwt.ErrTokenExpired) {
		return nil, fmt.Errorf("%w: %w", ErrExpiredToken, lastErr)
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidToken, lastErr)
}

func (s *JWTService) parse(token string, key []byte) (*Claims, error) {
	var claims Claims
	if _, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return nil, err
	}
	if claims.AccountID == "" {
		return nil, errors.New("missing uid claim")
	}
	return &claims, nil
}
