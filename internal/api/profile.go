package api

import (
	"net/http" // HTTP status codes

	"loyalty_points/internal/apperrors" // Application errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// UpdateProfileRequest lists the fields a user may change on their own account
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	BusinessType *string `json:"business_type"`
}

// GetProfileHandler returns the authenticated user with their branch
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).Preload("Branch").First(&user, me.ID).Error; err != nil {
			respondError(c, notFoundAs(err, apperrors.ErrUserNotFound), logrus.Fields{"user_id": me.ID})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler changes name, phone and business type of the authenticated user
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := map[string]any{}
		if req.Name != nil {
			name := utils.SanitizeText(*req.Name, 120)
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
				return
			}
			updates["name"] = name
		}
		if req.Phone != nil {
			updates["phone"] = sanitizePtr(req.Phone, 32)
		}
		if req.BusinessType != nil {
			updates["business_type"] = utils.SanitizeText(*req.BusinessType, 64)
		}
		ctxDB := db.WithContext(c.Request.Context())
		if len(updates) > 0 {
			if err := ctxDB.Model(&domain.User{ID: me.ID}).Updates(updates).Error; err != nil {
				respondError(c, err, logrus.Fields{"user_id": me.ID})
				return
			}
		}
		var user domain.User
		if err := ctxDB.Preload("Branch").First(&user, me.ID).Error; err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GetMyBranchHandler returns the branch the authenticated user belongs to
func GetMyBranchHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var branch domain.Branch
		if err := db.WithContext(c.Request.Context()).First(&branch, me.BranchID).Error; err != nil {
			respondError(c, notFoundAs(err, apperrors.ErrBranchNotFound), logrus.Fields{"user_id": me.ID})
			return
		}
		c.JSON(http.StatusOK, branch)
	}
}
