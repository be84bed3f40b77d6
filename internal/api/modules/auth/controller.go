package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicvoice/server/internal/stores/clinic"
)

type registerRequest struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	OrganizationName    string `json:"organization_name"`
	OrganizationCountry string `json:"organization_country"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public view of a user returned by auth endpoints
type userResponse struct {
	ID             uint   `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID uint   `json:"organization_id"`
}

func toUserResponse(user *clinic.User) userResponse {
	return userResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}
}

// Register handles POST requests to create a user and their organization
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" ||
		req.OrganizationName == "" || req.OrganizationCountry == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All user and organization fields are required."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AUTH]: failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user and organization"})
		return
	}

	user := &clinic.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	org := &clinic.Organization{
		Name:    req.OrganizationName,
		Country: req.OrganizationCountry,
	}

	if err := authStore.CreateUserWithOrganization(c.Request.Context(), user, org); err != nil {
		if errors.Is(err, clinic.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered."})
			return
		}
		log.Printf("[AUTH]: failed to register user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user and organization"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "User and organization created",
		"user":         toUserResponse(user),
		"organization": org,
	})
}

// Login handles POST requests to authenticate a user and issue a token
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required."})
		return
	}

	user, err := authStore.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
			return
		}
		log.Printf("[AUTH]: failed to look up user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in user"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
		return
	}

	token, err := issueToken(user)
	if err != nil {
		log.Printf("[AUTH]: failed to issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    toUserResponse(user),
	})
}

// Logout handles POST requests to revoke the presented token. A missing,
// malformed or expired token still logs out successfully; there is nothing
// left to revoke.
func Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
		return
	}

	claims, err := parseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
		return
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := authStore.RevokeToken(c.Request.Context(), claims.ID, expiresAt); err != nil {
		log.Printf("[AUTH]: failed to revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error during logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
