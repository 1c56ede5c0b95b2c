package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Password length bounds, bcrypt ignores bytes past 72
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// RegisterRequest is the self sign-up payload of a customer
type RegisterRequest struct {
	Name         string  `json:"name" binding:"required"`        // Display name must be provided
	Email        string  `json:"email" binding:"required,email"` // Email must be provided and valid
	Password     string  `json:"password" binding:"required"`    // Password must be provided
	Phone        *string `json:"phone"`                          // Optional phone
	BusinessType string  `json:"business_type"`                  // Optional business type
	BranchID     *uint   `json:"branch_id"`                      // Optional branch, first branch when absent
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string      `json:"token"` // JWT token
	User  domain.User `json:"user"`  // Authenticated user
}

// isValidPassword checks the password length bounds
func isValidPassword(password string) bool {
	return len(password) >= minPasswordLen && len(password) <= maxPasswordLen // Return true if length is valid
}

// hashPassword hashes a password with bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// newUserInput is the validated data needed to create any user
type newUserInput struct {
	Name         string
	Email        string
	Password     string
	Phone        *string
	BusinessType string
	Role         string
	BranchID     *uint // nil picks the first branch
}

// createUser validates uniqueness and branch, then inserts the user inside tx
func createUser(tx *gorm.DB, in newUserInput) (domain.User, error) {
	email := utils.NormalizeEmail(in.Email)
	var existing int64
	// Check if user already exists
	if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return domain.User{}, err
	}
	if existing > 0 {
		return domain.User{}, apperrors.ErrEmailTaken
	}
	var branch domain.Branch // Resolve the owning branch
	if in.BranchID != nil {
		if err := tx.First(&branch, *in.BranchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.User{}, apperrors.BadRequest("Branch not found")
			}
			return domain.User{}, err
		}
	} else if err := tx.Order("id asc").First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, apperrors.New(http.StatusInternalServerError, apperrors.CodeInternal, "No branch found. Please contact support.")
		}
		return domain.User{}, err
	}
	hash, err := hashPassword(in.Password) // Hash the password
	if err != nil {
		return domain.User{}, apperrors.Internal(err, "Failed to hash password")
	}
	user := domain.User{
		Name:         utils.SanitizeText(in.Name, 120),
		Email:        email,
		Password:     hash,
		Phone:        sanitizePtr(in.Phone, 32),
		BusinessType: utils.SanitizeText(in.BusinessType, 64),
		Role:         in.Role,
		BranchID:     branch.ID,
	}
	if err := tx.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, apperrors.ErrEmailTaken // Lost a race with a concurrent sign-up
		}
		return domain.User{}, err
	}
	user.Branch = &branch
	return user, nil
}

// sanitizePtr cleans an optional text field, mapping empty to nil
func sanitizePtr(s *string, maxLen int) *string {
	if s == nil {
		return nil
	}
	clean := utils.SanitizeText(*s, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}

// RegisterHandler signs up a new customer
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		var user domain.User
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var err error
			user, err = createUser(tx, newUserInput{
				Name:         req.Name,
				Email:        req.Email,
				Password:     req.Password,
				Phone:        req.Phone,
				BusinessType: req.BusinessType,
				Role:         domain.RoleCustomer,
				BranchID:     req.BranchID,
			})
			return err
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"email": req.Email})
			return
		}
		// Log successful registration
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,       // New user ID
			"branch_id": user.BranchID, // Assigned branch
		}).Info("Customer registered")
		c.JSON(http.StatusCreated, gin.H{"message": "Account created", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Preload("Branch").
			Where("email = ?", utils.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret, ttl)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}
