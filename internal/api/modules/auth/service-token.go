package auth

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicvoice/server/internal/stores/clinic"
	"github.com/clinicvoice/server/pkg/utils"
)

const tokenTTL = 24 * time.Hour

const claimsContextKey = "auth_claims"

// Module state, set once by Init
var (
	authStore *clinic.Store
	jwtSecret []byte
)

// Claims carried inside every issued token. The jti (RegisteredClaims.ID) is
// the revocation key.
type Claims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Init wires the auth module to its store and signing secret
func Init(cfg *utils.Config, store *clinic.Store) error {
	secret := cfg.Get("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET not set in environment")
	}

	jwtSecret = []byte(secret)
	authStore = store

	return nil
}

// issueToken signs a new token for the user with a fresh jti
func issueToken(user *clinic.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// parseToken verifies the signature and expiry and returns the claims
func parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token. Verified tokens
// are also checked against the revocation denylist, so logout takes effect
// immediately rather than at natural expiry.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
			return
		}

		claims, err := parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Printf("[AUTH]: token verification failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
			return
		}

		revoked, err := authStore.IsTokenRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Printf("[AUTH]: revocation check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token has been revoked"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// CurrentClaims retrieves the verified claims from the gin context
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}

	claims, ok := value.(*Claims)
	return claims, ok
}

// CurrentUserID retrieves the authenticated user's id from the gin context
func CurrentUserID(c *gin.Context) (uint, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
