package lib

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Envelope is the response shape of every endpoint except the list.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse writes a failure envelope with the given status.
func MessageResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// DataResponse writes a success envelope with the given status.
func DataResponse(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: message})
}

// ErrMissingSecret is returned when signing or verifying without a secret.
var ErrMissingSecret = errors.New("jwt secret is not configured")

// GenerateJWT signs an HS256 API token for subject, valid for ttl.
func GenerateJWT(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyJWT checks the signature and expiry of tokenString and returns its claims.
func VerifyJWT(secret, tokenString string) (*jwt.RegisteredClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return claims, nil
}
