package api

import (
	"encoding/json" // Audit details encoding
	"errors"        // Error inspection
	"net/http"      // HTTP status codes
	"strconv"       // Path parameter parsing
	"strings"       // Label normalization

	"loyalty_points/internal/apperrors"  // Domain errors
	"loyalty_points/internal/domain"     // Importing domain models
	"loyalty_points/internal/metrics"    // Rejection counters
	"loyalty_points/internal/middleware" // Current user lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/datatypes"          // JSON column type
	"gorm.io/gorm"               // GORM ORM library
)

// respondError writes the JSON error envelope for err. AppErrors keep their status and
// message, anything else is logged with fields and reported as a generic 500.
func respondError(c *gin.Context, err error, fields logrus.Fields) {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			logrus.WithFields(fields).WithError(err).Error(appErr.Message)
		} else {
			metrics.RejectedRequests.WithLabelValues(strings.ToLower(appErr.Code)).Inc() // Count domain refusals
		}
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}
	logrus.WithFields(fields).WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// currentUser returns the authenticated user or writes 401
func currentUser(c *gin.Context) (domain.User, bool) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return domain.User{}, false
	}
	return user, true
}

// pathID parses the :id path parameter or writes 400
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// branchScope restricts a query to the user's branch unless the user is a superadmin
func branchScope(user domain.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user.IsSuperadmin() {
			return db
		}
		return db.Where("branch_id = ?", user.BranchID)
	}
}

// writeAdminLog appends an audit record using the caller's transaction
func writeAdminLog(tx *gorm.DB, adminID uint, action string, details any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return tx.Create(&domain.AdminLog{AdminID: adminID, Action: action, Details: datatypes.JSON(payload)}).Error
}

// notFoundAs maps gorm.ErrRecordNotFound to the given AppError
func notFoundAs(err error, appErr *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr
	}
	return err
}
