package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cashflow/backend/internal/infrastructure/config"
	"github.com/cashflow/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTSubjectKey = "jwt_subject"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTConfig holds JWT middleware configuration
type JWTConfig struct {
	Secret    string
	Issuer    string
	SkipPaths []string
}

// JWTFromConfig builds middleware configuration from the app config
func JWTFromConfig(cfg config.JWTConfig) JWTConfig {
	return JWTConfig{
		Secret: cfg.Secret,
		Issuer: cfg.Issuer,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
		},
	}
}

// JWTAuth verifies the bearer token on every request outside the skip list.
// Identity lives in an external service; this middleware only checks the
// signature, expiry and issuer, and exposes the subject to handlers.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)

		parserOpts := []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		}
		if cfg.Issuer != "" {
			parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, parserOpts...)
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Token validation failed")
			return
		}

		c.Set(JWTSubjectKey, claims.Subject)
		c.Next()
	}
}

// GetJWTSubject returns the verified token subject, empty when unauthenticated
func GetJWTSubject(c *gin.Context) string {
	return c.GetString(JWTSubjectKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}
