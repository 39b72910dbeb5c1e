package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/lexledger/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrMissingUser   = errors.New("missing user_id in claims")
	ErrMissingLawyer = errors.New("missing lawyer_id in claims")
)

// Claims represents the JWT claims carried by access tokens. The practice
// scope lives in the token so every request resolves tenancy without a
// database round trip.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	LawyerID string `json:"lawyer_id"`
	FirmID   string `json:"firm_id,omitempty"`
	Departed bool   `json:"departed,omitempty"`
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	UserID   uuid.UUID
	LawyerID uuid.UUID
	FirmID   *uuid.UUID
	Departed bool
}

// GenerateAccessToken generates a signed access token for the caller
func (s *JWTService) GenerateAccessToken(input GenerateTokenInput) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   input.UserID.String(),
		LawyerID: input.LawyerID.String(),
		Departed: input.Departed,
	}
	if input.FirmID != nil {
		claims.FirmID = input.FirmID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken parses and validates an access token
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUser
	}
	if claims.LawyerID == "" {
		return nil, ErrMissingLawyer
	}
	return claims, nil
}

// CallerContext converts validated claims into the domain caller context
func (c *Claims) CallerContext() (shared.CallerContext, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return shared.CallerContext{}, ErrInvalidClaims
	}
	lawyerID, err := uuid.Parse(c.LawyerID)
	if err != nil {
		return shared.CallerContext{}, ErrInvalidClaims
	}

	caller := shared.CallerContext{
		UserID:   userID,
		Scope:    shared.PracticeScope{LawyerID: lawyerID},
		Departed: c.Departed,
	}
	if c.FirmID != "" {
		firmID, err := uuid.Parse(c.FirmID)
		if err != nil {
			return shared.CallerContext{}, ErrInvalidClaims
		}
		caller.Scope.FirmID = &firmID
	}
	return caller, nil
}
