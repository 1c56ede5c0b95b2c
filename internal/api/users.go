package api

import (
	"net/http" // HTTP status codes
	"sort"     // Stable audit field order
	"strconv"  // Query parsing
	"strings"  // Search terms

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

var (
	errUserInUse  = apperrors.New(http.StatusBadRequest, apperrors.CodeInUse, "Cannot delete user with related transactions or admin logs")
	errDeleteSelf = apperrors.BadRequest("Cannot delete your own account")
	errOwnRole    = apperrors.BadRequest("Cannot change your own role")
	errBadRole    = apperrors.BadRequest("Invalid role")
)

// CreateUserRequest is the payload a superadmin uses to create any user
type CreateUserRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required"`
	Phone        *string `json:"phone"`
	BusinessType string  `json:"business_type" binding:"required"`
	BranchID     *uint   `json:"branch_id" binding:"required"`
	Role         string  `json:"role" binding:"required"`
}

// UpdateUserRequest changes any subset of a user
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Password     *string `json:"password"`
	Phone        *string `json:"phone"`
	BusinessType *string `json:"business_type"`
	BranchID     *uint   `json:"branch_id"`
	Role         *string `json:"role"`
}

// ListUsersHandler pages through users, optionally filtered by role, branch or search term
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParsePage(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.User{})
		if role := c.Query("role"); role != "" {
			if !domain.ValidRole(role) {
				respondError(c, errBadRole, nil)
				return
			}
			query = query.Where("role = ?", role)
		}
		if v := c.Query("branch_id"); v != "" {
			branchID, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch_id"})
				return
			}
			query = query.Where("branch_id = ?", branchID)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		users := []domain.User{}
		if err := query.Preload("Branch").Order("created_at desc").Order("id desc").
			Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       users,
			"page":        page.Number,
			"page_size":   page.Size,
			"total":       total,
			"total_pages": page.TotalPages(total),
		})
	}
}

// GetUserHandler returns one user with their branch
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).Preload("Branch").First(&user, id).Error; err != nil {
			respondError(c, notFoundAs(err, apperrors.ErrUserNotFound), logrus.Fields{"user_id": id})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateUserHandler creates a user with any role
func CreateUserHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		if !domain.ValidRole(req.Role) {
			respondError(c, errBadRole, nil)
			return
		}
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
				Role:         req.Role,
				BranchID:     req.BranchID,
			})
			if err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionUserCreate, gin.H{
				"user_id":   user.ID,
				"email":     user.Email,
				"role":      user.Role,
				"branch_id": user.BranchID,
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "email": req.Email})
			return
		}
		_ = cache.DeletePrefix(c.Request.Context(), utils.DashboardPrefix)
		logrus.WithFields(logrus.Fields{
			"admin_id": me.ID,
			"user_id":  user.ID,
			"role":     user.Role,
		}).Info("User created")
		c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": user})
	}
}

// userUpdates validates an update request into column updates
func userUpdates(tx *gorm.DB, me domain.User, target domain.User, req UpdateUserRequest) (map[string]any, error) {
	updates := map[string]any{}
	if req.Name != nil {
		name := utils.SanitizeText(*req.Name, 120)
		if name == "" {
			return nil, apperrors.BadRequest("Name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		var taken int64
		if err := tx.Model(&domain.User{}).Where("email = ? AND id <> ?", email, target.ID).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, apperrors.ErrEmailTaken
		}
		updates["email"] = email
	}
	if req.Password != nil {
		if !isValidPassword(*req.Password) {
			return nil, apperrors.BadRequest("Password must be 8-72 characters")
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.Internal(err, "Failed to hash password")
		}
		updates["password"] = hash
	}
	if req.Phone != nil {
		updates["phone"] = sanitizePtr(req.Phone, 32)
	}
	if req.BusinessType != nil {
		updates["business_type"] = utils.SanitizeText(*req.BusinessType, 64)
	}
	if req.BranchID != nil {
		var exists int64
		if err := tx.Model(&domain.Branch{}).Where("id = ?", *req.BranchID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, apperrors.BadRequest("Branch not found")
		}
		updates["branch_id"] = *req.BranchID
	}
	if req.Role != nil {
		if !domain.ValidRole(*req.Role) {
			return nil, errBadRole
		}
		if target.ID == me.ID && *req.Role != me.Role {
			return nil, errOwnRole
		}
		updates["role"] = *req.Role
	}
	return updates, nil
}

// UpdateUserHandler changes any subset of a user's fields
func UpdateUserHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&user, id).Error; err != nil {
				return notFoundAs(err, apperrors.ErrUserNotFound)
			}
			updates, err := userUpdates(tx, me, user, req)
			if err != nil {
				return err
			}
			if len(updates) == 0 {
				return apperrors.BadRequest("No fields to update")
			}
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.Preload("Branch").First(&user, id).Error; err != nil {
				return err
			}
			changed := make([]string, 0, len(updates)) // Field names only, values may be secret
			for field := range updates {
				changed = append(changed, field)
			}
			sort.Strings(changed)
			return writeAdminLog(tx, me.ID, domain.ActionUserUpdate, gin.H{"user_id": id, "fields": changed})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "user_id": id})
			return
		}
		_ = cache.InvalidateUserPoints(c.Request.Context(), id) // Branch and role feed cached views
		logrus.WithFields(logrus.Fields{"admin_id": me.ID, "user_id": id}).Info("User updated")
		c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": user})
	}
}

// DeleteUserHandler removes a user without history
func DeleteUserHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		if id == me.ID {
			respondError(c, errDeleteSelf, nil)
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var user domain.User
			if err := tx.First(&user, id).Error; err != nil {
				return notFoundAs(err, apperrors.ErrUserNotFound)
			}
			var txCount, logCount int64
			if err := tx.Model(&domain.PointsTransaction{}).Where("user_id = ?", id).Count(&txCount).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.AdminLog{}).Where("admin_id = ?", id).Count(&logCount).Error; err != nil {
				return err
			}
			if txCount > 0 || logCount > 0 {
				return errUserInUse
			}
			if err := tx.Delete(&user).Error; err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionUserDelete, gin.H{
				"user_id":   id,
				"email":     user.Email,
				"role":      user.Role,
				"branch_id": user.BranchID,
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "user_id": id})
			return
		}
		_ = cache.InvalidateUserPoints(c.Request.Context(), id)
		logrus.WithFields(logrus.Fields{"admin_id": me.ID, "user_id": id}).Info("User deleted")
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
