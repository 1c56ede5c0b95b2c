package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Timestamps

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/metrics"   // Workflow counters
	"loyalty_points/internal/points"    // Balance arithmetic
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking
)

// BalanceResponse is the points balance of the authenticated user
type BalanceResponse struct {
	points.Summary
	Price          decimal.Decimal `json:"price"`           // Value of one point at the user's branch
	PointsValue    decimal.Decimal `json:"points_value"`    // Balance times price
	AvailableValue decimal.Decimal `json:"available_value"` // Available points times price
	Cached         bool            `json:"cached"`          // Served from cache
}

// loadSummary computes the points summary of one user from confirmed and pending rows
func loadSummary(db *gorm.DB, userID uint) (points.Summary, error) {
	var txs []domain.PointsTransaction
	if err := db.Select("type", "status", "points", "amount").
		Where("user_id = ? AND status IN ?", userID, []string{domain.StatusConfirmed, domain.StatusPending}).
		Find(&txs).Error; err != nil {
		return points.Summary{}, err
	}
	return points.Summarize(txs), nil
}

// GetBalanceHandler returns the derived balance of the authenticated user
func GetBalanceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()          // Request context for DB and Redis
		cacheKey := utils.BalanceKey(me.ID) // Cache key for balance
		var cached BalanceResponse
		// If found in cache, return it
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		ctxDB := db.WithContext(ctx)
		summary, err := loadSummary(ctxDB, me.ID)
		if err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID})
			return
		}
		var branch domain.Branch // Price comes from the user's branch
		if err := ctxDB.First(&branch, me.BranchID).Error; err != nil {
			respondError(c, notFoundAs(err, apperrors.ErrBranchNotFound), logrus.Fields{"user_id": me.ID})
			return
		}
		resp := BalanceResponse{
			Summary:        summary,
			Price:          branch.Price,
			PointsValue:    points.Value(summary.Balance, branch.Price),
			AvailableValue: points.Value(summary.Available, branch.Price),
		}
		_ = cache.Set(ctx, cacheKey, resp) // Cache the balance
		c.JSON(http.StatusOK, resp)
	}
}

// txPage is a paginated transaction list
type txPage struct {
	Transactions []domain.PointsTransaction `json:"transactions"` // List of transactions
	Page         int                        `json:"page"`         // Current page
	PageSize     int                        `json:"page_size"`    // Page size
	Total        int64                      `json:"total"`        // Total transactions
	TotalPages   int                        `json:"total_pages"`  // Total pages
	Cached       bool                       `json:"cached"`       // Served from cache
}

// GetHistoryHandler returns the transactions of the authenticated user, newest first
func GetHistoryHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		page := utils.ParsePage(c)
		ctx := c.Request.Context()
		cacheKey := utils.HistoryKey(me.ID, page.Number, page.Size) // Redis cache key
		var cached txPage
		// Try to get from cache
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.WithContext(ctx).Model(&domain.PointsTransaction{}).Where("user_id = ?", me.ID)
		var total int64 // Total count of transactions
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID})
			return
		}
		resp := txPage{Transactions: []domain.PointsTransaction{}, Page: page.Number, PageSize: page.Size, Total: total, TotalPages: page.TotalPages(total)}
		// Fetch paginated transactions
		if err := query.Order("created_at desc").Order("id desc").
			Offset(page.Offset()).Limit(page.Size).Find(&resp.Transactions).Error; err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID})
			return
		}
		_ = cache.Set(ctx, cacheKey, resp) // Cache the page
		c.JSON(http.StatusOK, resp)
	}
}

// PurchaseRequest submits a purchase receipt for points
type PurchaseRequest struct {
	Folio       string           `json:"folio" binding:"required"`       // Receipt number
	Amount      *decimal.Decimal `json:"amount" binding:"required"`      // Purchase amount
	ReceiptURL  string           `json:"receipt_url" binding:"required"` // Where the receipt image lives
	Description string           `json:"description" binding:"required"` // What was bought
}

// SubmitPurchaseHandler records a pending earn transaction for a purchase receipt
func SubmitPurchaseHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req PurchaseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		folio := utils.SanitizeText(req.Folio, 64)
		receiptURL := strings.TrimSpace(req.ReceiptURL)
		description := utils.SanitizeText(req.Description, 500)
		if folio == "" || receiptURL == "" || description == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		if len(receiptURL) > 512 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt URL is too long"})
			return
		}
		amount := req.Amount.Round(2)
		if !points.ValidPurchaseAmount(amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		ptx := domain.PointsTransaction{
			UserID:      me.ID,                      // Owner
			BranchID:    me.BranchID,                // Customer's branch
			Type:        domain.TypeEarn,            // Earn points
			Points:      points.ForPurchase(amount), // floor(amount / 100)
			Amount:      amount,                     // Purchase amount
			Status:      domain.StatusPending,       // Waits for review
			Folio:       folio,                      // Receipt number
			ReceiptURL:  &receiptURL,                // Receipt image
			Description: description,                // What was bought
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var existing int64 // Same folio already claimed by this user
			if err := tx.Model(&domain.PointsTransaction{}).
				Where("user_id = ? AND folio = ?", me.ID, folio).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return apperrors.ErrDuplicateFolio
			}
			if err := tx.Create(&ptx).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.ErrDuplicateFolio // A concurrent submission won the unique index
				}
				return err
			}
			return nil
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID, "folio": folio})
			return
		}
		metrics.TransactionsSubmitted.WithLabelValues(domain.TypeEarn).Inc()
		// Log the submission
		logrus.WithFields(logrus.Fields{
			"user_id":        me.ID,           // Customer
			"transaction_id": ptx.ID,          // New transaction
			"folio":          folio,           // Receipt number
			"amount":         ptx.Amount,      // Purchase amount
			"points":         ptx.Points,      // Points requested
			"type":           domain.TypeEarn, // Transaction type
		}).Info("Purchase submitted")
		_ = cache.InvalidateUserPoints(c.Request.Context(), me.ID) // Drop stale balance and history
		c.JSON(http.StatusCreated, gin.H{
			"transaction_id": ptx.ID,
			"points":         ptx.Points,
			"message":        "Receipt submitted successfully. Points will be credited after admin approval.",
		})
	}
}

// RedeemRequest asks to exchange points for store credit
type RedeemRequest struct {
	Points      int64  `json:"points" binding:"required,gt=0"` // Points to redeem
	Description string `json:"description"`                    // Optional note
}

// RedeemHandler records a pending redeem transaction when the available balance covers it.
// The user row is locked for the duration so concurrent requests cannot both pass the check.
func RedeemHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req RedeemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid points amount"})
			return
		}
		description := utils.SanitizeText(req.Description, 500)
		if description == "" {
			description = "Points redemption request"
		}
		var ptx domain.PointsTransaction
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var owner domain.User // Serialize redemptions of this user
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&owner, me.ID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrUserNotFound)
			}
			summary, err := loadSummary(tx, owner.ID)
			if err != nil {
				return err
			}
			if !points.CanRedeem(summary, req.Points) {
				return apperrors.ErrInsufficientPoints
			}
			var branch domain.Branch // Credit is valued at the owner's branch price
			if err := tx.First(&branch, owner.BranchID).Error; err != nil {
				return notFoundAs(err, apperrors.ErrBranchNotFound)
			}
			ptx = domain.PointsTransaction{
				UserID:      owner.ID,
				BranchID:    owner.BranchID,
				Type:        domain.TypeRedeem,
				Points:      req.Points,
				Amount:      points.RedemptionAmount(req.Points, branch.Price),
				Status:      domain.StatusPending,
				Folio:       utils.NewRedemptionFolio(time.Now()),
				Description: description,
			}
			return tx.Create(&ptx).Error
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"user_id": me.ID, "points": req.Points})
			return
		}
		metrics.TransactionsSubmitted.WithLabelValues(domain.TypeRedeem).Inc()
		logrus.WithFields(logrus.Fields{
			"user_id":        me.ID,
			"transaction_id": ptx.ID,
			"folio":          ptx.Folio,
			"points":         ptx.Points,
			"amount":         ptx.Amount,
			"type":           domain.TypeRedeem,
		}).Info("Redemption requested")
		_ = cache.InvalidateUserPoints(c.Request.Context(), me.ID)
		c.JSON(http.StatusCreated, gin.H{
			"transaction_id": ptx.ID,
			"folio":          ptx.Folio,
			"points":         ptx.Points,
			"amount":         ptx.Amount,
			"message":        "Redemption generated successfully",
		})
	}
}
