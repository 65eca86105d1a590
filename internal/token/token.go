package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims - утверждения токена доступа поставщика к запросу на котировку.
type AccessClaims struct {
	SolicitationID string `json:"solicitationId"`
	VendorID       string `json:"vendorId"`
	jwt.RegisteredClaims
}

// Service выпускает и проверяет токены доступа поставщиков.
type Service struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewService создает новый экземпляр Service с подписью HS256.
func NewService(secret string, now func() time.Time) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{secret: []byte(secret), method: jwt.SigningMethodHS256, now: now}, nil
}

// Issue выпускает токен, привязанный к запросу, поставщику и сроку действия.
// Второе значение - идентификатор токена (jti), который можно хранить вместо самого токена.
func (s *Service) Issue(solicitationID, vendorID string, expiresAt time.Time) (string, string, error) {
	tokenRef := uuid.New().String()
	claims := AccessClaims{
		SolicitationID: solicitationID,
		VendorID:       vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenRef,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, tokenRef, nil
}

// Verify проверяет подпись и срок действия токена.
func (s *Service) Verify(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, models.NewAuthenticationError("access token is required")
	}

	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewExpiredError("access token has expired")
		}
		return nil, models.NewAuthenticationError("invalid access token")
	}

	if claims.SolicitationID == "" || claims.VendorID == "" {
		return nil, models.NewAuthenticationError("access token is missing required claims")
	}
	return claims, nil
}
