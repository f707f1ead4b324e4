// user.go - Handles user registration, login and token lookup

package handlers // Declares the package name

import ( // Import required packages
	"errors"
	"net/http" // HTTP status codes
	"strings"

	"envsense-backend/models" // User model
	"envsense-backend/store"  // Record store errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
)

type RegisterInput struct { // Struct for registration input
	Name     string `json:"name"`                              // Display name
	Email    string `json:"email" binding:"required,email"`    // Email (required)
	Password string `json:"password" binding:"required,min=6"` // Password (required)
}

type LoginInput struct { // Struct for login input
	Email    string `json:"email" binding:"required"`    // Email (required)
	Password string `json:"password" binding:"required"` // Password (required)
}

func (h *Handler) Register(c *gin.Context) { // Handler for user registration
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil { // Parse JSON input
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()

	// STEP 1: Email must be unused
	_, err := h.Users.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		return
	case !errors.Is(err, store.ErrNotFound):
		h.serverError(c, "message", err)
		return
	}

	// STEP 2: Hash password and save
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(c, "message", err)
		return
	}
	user := &models.User{Name: input.Name, Email: input.Email, Password: string(hash)}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) { // Lost a race with a concurrent registration
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		h.serverError(c, "message", err)
		return
	}

	// STEP 3: Issue token
	tokenString, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.serverError(c, "message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": tokenString})
}

func (h *Handler) Login(c *gin.Context) { // Handler for user login
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), input.Email) // Find user by email
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}
		h.serverError(c, "message", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil { // Check password
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	tokenString, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.serverError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "user": user})
}

// GetUserByToken resolves the presented bearer token to its user.
// Any failure is answered with 500, the way this endpoint always behaved.
func (h *Handler) GetUserByToken(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	userID, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "user": user})
}
