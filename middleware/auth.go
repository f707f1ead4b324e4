// auth.go - JWT authentication middleware
// This file implements authentication and authorization for the API
//
// Authentication Flow:
// 1. Extract JWT token from Authorization header
// 2. Validate token signature and expiration
// 3. Resolve the user id claim to a stored user
// 4. Store the user in context for handlers
//
// Authorization Flow (Admin):
// 1. Runs after AuthMiddleware on the same route
// 2. Read the user from context
// 3. Allow only role="admin"

package middleware // Declares the package name

import ( // Import required packages
	"context"
	"net/http" // HTTP status codes (401, 403, etc.)
	"strings"  // String operations (for header parsing)

	"envsense-backend/models" // User model (for role checking)
	"envsense-backend/token"  // Bearer token verification

	"github.com/gin-gonic/gin" // Gin web framework (for middleware)
)

const userKey = "user" // Gin context key for the authenticated *models.User

// UserLookup resolves a token subject to a user record.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware - Returns a Gin middleware function for JWT authentication
// Every failure answers the same 401 so callers cannot tell causes apart.
func AuthMiddleware(tokens *token.Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) { // Middleware handler (runs before each request)
		// STEP 1: Extract Authorization header
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c)
			return
		}

		// STEP 2: Parse JWT token (signature, algorithm, expiry)
		userID, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(c)
			return
		}

		// STEP 3: The account must still exist
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(userKey, user) // Store user in Gin context
		c.Next()             // Continue to next handler (authentication successful)
	}
}

// AdminMiddleware - Returns a Gin middleware function for admin access control
// It must be chained after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next() // Continue to next handler (admin access granted)
	}
}

// CurrentUser returns the user attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
}
