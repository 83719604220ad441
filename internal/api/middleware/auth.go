// Package middleware provides gin middleware for authentication, rate
// limiting and request logging.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aimd54/questforge/internal/api/response"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/pkg/logger"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// UserProvisioner creates the user row on first authenticated use.
type UserProvisioner interface {
	GetOrCreate(ctx context.Context, id, username string) (*models.User, error)
}

// Claims are the access token claims the API reads.
type Claims struct {
	Username string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier. An empty issuer accepts any issuer.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses a token and returns its claims. The subject must be set.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if len(claims.Subject) > 64 {
		return nil, fmt.Errorf("subject too long")
	}
	return claims, nil
}

// Sign issues an HS256 token for claims. Used by tooling and tests.
func (v *TokenVerifier) Sign(claims *Claims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Auth requires a valid bearer token, stores the subject under UserIDKey and
// lazily provisions the user.
func Auth(verifier *TokenVerifier, users UserProvisioner, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("Rejected access token")
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		if _, err := users.GetOrCreate(c.Request.Context(), claims.Subject, claims.Username); err != nil {
			log.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to provision user")
			response.AbortWithError(c, http.StatusInternalServerError, response.InternalErrorMessage)
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
