package auth

import (
	"errors"
	"time"

	"wayfare/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims ride on access tokens; middleware copies UserID and Role onto the
// request context.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Pair is what login, registration and refresh hand back to clients.
type Pair struct {
	Access  string
	Refresh string
}

func registered(cfg *config.JWTConfig, subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GenerateAccessToken(cfg *config.JWTConfig, userID, email, role string) (string, error) {
	return sign(Claims{
		UserID:           userID,
		Email:            email,
		Role:             role,
		RegisteredClaims: registered(cfg, userID, cfg.AccessExpiry),
	}, cfg.AccessSecret)
}

func GenerateRefreshToken(cfg *config.JWTConfig, userID string) (string, error) {
	return sign(registered(cfg, userID, cfg.RefreshExpiry), cfg.RefreshSecret)
}

// IssuePair signs a fresh access and refresh token for one account.
func IssuePair(cfg *config.JWTConfig, userID, email, role string) (Pair, error) {
	access, err := GenerateAccessToken(cfg, userID, email, role)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := GenerateRefreshToken(cfg, userID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func parse(cfg *config.JWTConfig, raw, secret string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	var claims Claims
	if err := parse(cfg, tokenString, cfg.AccessSecret, &claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefreshToken returns the user id a refresh token was issued to.
func ParseRefreshToken(cfg *config.JWTConfig, tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := parse(cfg, tokenString, cfg.RefreshSecret, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
