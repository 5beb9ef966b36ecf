package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"arbigrid/backend/services/market-service/internal/address"
)

// Issuer is stamped on every wallet token and required on validation.
const Issuer = "arbigrid-market"

var (
	// ErrWrongSigningMethod rejects tokens not signed with HMAC.
	ErrWrongSigningMethod = errors.New("token: unexpected signing method")
	// ErrAddressClaim rejects tokens without a usable wallet address.
	ErrAddressClaim = errors.New("token: address claim missing or invalid")
)

// Claims is the JWT payload identifying a wallet.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService returns configured token service.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

// GenerateToken issues a JWT for the given wallet address.
func (t *TokenService) GenerateToken(wallet string) (string, error) {
	normalized, err := address.Normalize(wallet)
	if err != nil {
		return "", err
	}

	now := t.now().UTC()
	claims := Claims{
		Address: normalized,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   normalized,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken verifies the signature and expiry and returns the claims
// with a normalised address.
func (t *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrWrongSigningMethod
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token: invalid claims")
	}
	normalized, err := address.Normalize(claims.Address)
	if err != nil {
		return nil, ErrAddressClaim
	}
	claims.Address = normalized
	return claims, nil
}
