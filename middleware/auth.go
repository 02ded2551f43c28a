package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mess-management-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of bearer tokens issued at login
const TokenTTL = 24 * time.Hour

// Context keys set by Authenticator.Required
const (
	ctxUserID    = "userID"
	ctxEmail     = "email"
	ctxRole      = "role"
	ctxSessionID = "sessionID"
)

type Claims struct {
	UserID uint            `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a given user
func GenerateToken(user *models.User, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates an HS256 token and returns its claims
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SessionResolver maps a session cookie to its user
type SessionResolver interface {
	UserForSession(ctx context.Context, sessionID string) (*models.User, error)
}

// Authenticator accepts either the session cookie or a bearer JWT
type Authenticator struct {
	secret        []byte
	sessions      SessionResolver
	secureCookies bool
}

func NewAuthenticator(secret []byte, sessions SessionResolver, secureCookies bool) *Authenticator {
	return &Authenticator{secret: secret, sessions: sessions, secureCookies: secureCookies}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// Required rejects requests without a live session or a valid token and
// injects the caller's identity into the context. The cookie wins when both
// are present.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID, err := c.Cookie(SessionCookie); err == nil && sessionID != "" && a.sessions != nil {
			user, err := a.sessions.UserForSession(c.Request.Context(), sessionID)
			if err != nil {
				ClearSessionCookie(c, a.secureCookies)
				unauthorized(c, "Session expired, please log in again")
				return
			}
			c.Set(ctxUserID, user.ID)
			c.Set(ctxEmail, user.Email)
			c.Set(ctxRole, string(user.Role))
			c.Set(ctxSessionID, sessionID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Login required (session cookie or Bearer token)")
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(authHeader, "Bearer "), a.secret)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ctxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Role not found in context"})
			return
		}
		callerRole := models.UserRole(roleVal.(string))
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied. Required role(s): " + rolesString(roles),
		})
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// GetUserID extracts caller user ID from context; zero when unauthenticated
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}

// GetSessionID returns the session the caller authenticated with, if any
func GetSessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
