package middleware

import (
	"loyalty_points/internal/apperrors" // Application errors
	"loyalty_points/internal/domain"    // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// LoadUserMiddleware loads the authenticated user from the database on each request,
// so role and branch changes apply without waiting for the token to expire
func LoadUserMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if !exists {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			// Deleted users keep valid tokens until expiry, treat them as anonymous
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		c.Set(CurrentUserKey, user) // Store the user for handlers
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the current user holds one of the roles
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, apperrors.ErrForbidden)
	}
}

// UserFromContext returns the user stored by LoadUserMiddleware
func UserFromContext(c *gin.Context) (domain.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return domain.User{}, false
	}
	user, ok := v.(domain.User)
	return user, ok
}
