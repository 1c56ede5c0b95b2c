package api

import (
	"net/http" // HTTP status codes
	"time"     // Review timestamp

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/metrics"   // Workflow counters
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Row locking
)

// Review actions
const (
	ReviewApprove = "approve"
	ReviewReject  = "reject"
)

// ReviewRequest resolves a pending transaction
type ReviewRequest struct {
	TransactionID uint   `json:"transaction_id" binding:"required"`              // Transaction to resolve
	Action        string `json:"action" binding:"required,oneof=approve reject"` // approve or reject
}

// ReviewTransactionHandler approves or rejects a pending transaction. Admins are limited to
// their own branch. A transaction is resolved at most once.
func ReviewTransactionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req ReviewRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		newStatus, action := domain.StatusConfirmed, domain.ActionTransactionApprove
		if req.Action == ReviewReject {
			newStatus, action = domain.StatusRejected, domain.ActionTransactionReject
		}
		fields := logrus.Fields{"admin_id": me.ID, "transaction_id": req.TransactionID, "action": req.Action}

		var ptx domain.PointsTransaction
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&ptx, req.TransactionID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrTxNotFound)
			}
			if !me.CanAccessBranch(ptx.BranchID) {
				return apperrors.ErrOtherBranch
			}
			// Owner first, then the transaction, the same order redemptions take
			var owner domain.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, ptx.UserID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrUserNotFound)
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ptx, ptx.ID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrTxNotFound)
			}
			if !ptx.IsPending() {
				return apperrors.AlreadyResolved(ptx.Status)
			}
			if newStatus == domain.StatusConfirmed && ptx.Type == domain.TypeRedeem {
				summary, err := loadSummary(tx, owner.ID)
				if err != nil {
					return err
				}
				if summary.Balance < ptx.Points {
					return apperrors.ErrInsufficientPoints
				}
			}
			now := time.Now().UTC()
			res := tx.Model(&domain.PointsTransaction{}).
				Where("id = ? AND status = ?", ptx.ID, domain.StatusPending).
				Updates(map[string]any{"status": newStatus, "reviewed_by": me.ID, "reviewed_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var current domain.PointsTransaction
				if err := tx.Select("status").First(&current, ptx.ID).Error; err != nil {
					return err
				}
				return apperrors.AlreadyResolved(current.Status)
			}
			if err := writeAdminLog(tx, me.ID, action, gin.H{
				"transaction_id":  ptx.ID,
				"user_id":         ptx.UserID,
				"branch_id":       ptx.BranchID,
				"type":            ptx.Type,
				"points":          ptx.Points,
				"amount":          ptx.Amount,
				"previous_status": domain.StatusPending,
				"status":          newStatus,
			}); err != nil {
				return err
			}
			reviewer := me.ID
			ptx.Status, ptx.ReviewedBy, ptx.ReviewedAt = newStatus, &reviewer, &now
			return nil
		})
		if err != nil {
			respondError(c, err, fields)
			return
		}
		metrics.TransactionsReviewed.WithLabelValues(ptx.Type, newStatus).Inc()
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"user_id": ptx.UserID, // Owner of the transaction
			"type":    ptx.Type,   // earn or redeem
			"points":  ptx.Points, // Points moved
			"status":  newStatus,  // Resulting status
		}).Info("Transaction reviewed")
		_ = cache.InvalidateUserPoints(c.Request.Context(), ptx.UserID) // Owner's balance changed

		message := "Transaction approved successfully"
		if newStatus == domain.StatusRejected {
			message = "Transaction rejected successfully"
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "transaction": ptx})
	}
}
