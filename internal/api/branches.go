package api

import (
	"net/http" // HTTP status codes

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

var errBranchInUse = apperrors.New(http.StatusBadRequest, apperrors.CodeInUse, "Cannot delete branch with related users or transactions")

// BranchSummary is the public view of a branch
type BranchSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BranchDetails is a branch with usage counts
type BranchDetails struct {
	domain.Branch
	UserCount        int64 `json:"user_count"`
	TransactionCount int64 `json:"transaction_count"`
}

// BranchRequest creates a branch
type BranchRequest struct {
	Name    string           `json:"name" binding:"required"`
	Address string           `json:"address" binding:"required"`
	Price   *decimal.Decimal `json:"price" binding:"required"`
}

// UpdateBranchRequest changes any subset of a branch
type UpdateBranchRequest struct {
	Name    *string          `json:"name"`
	Address *string          `json:"address"`
	Price   *decimal.Decimal `json:"price"`
}

// branchCounts returns user and transaction counts keyed by branch id
func branchCounts(db *gorm.DB, ids []uint) (map[uint]int64, map[uint]int64, error) {
	type row struct {
		BranchID uint
		Total    int64
	}
	count := func(model any) (map[uint]int64, error) {
		var rows []row
		if err := db.Model(model).Select("branch_id, COUNT(*) AS total").
			Where("branch_id IN ?", ids).Group("branch_id").Scan(&rows).Error; err != nil {
			return nil, err
		}
		out := make(map[uint]int64, len(rows))
		for _, r := range rows {
			out[r.BranchID] = r.Total
		}
		return out, nil
	}
	users, err := count(&domain.User{})
	if err != nil {
		return nil, nil, err
	}
	txs, err := count(&domain.PointsTransaction{})
	if err != nil {
		return nil, nil, err
	}
	return users, txs, nil
}

// withCounts decorates branches with their usage counts
func withCounts(db *gorm.DB, branches []domain.Branch) ([]BranchDetails, error) {
	out := make([]BranchDetails, 0, len(branches))
	if len(branches) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(branches))
	for _, b := range branches {
		ids = append(ids, b.ID)
	}
	users, txs, err := branchCounts(db, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		out = append(out, BranchDetails{Branch: b, UserCount: users[b.ID], TransactionCount: txs[b.ID]})
	}
	return out, nil
}

// validPrice checks that a point price is positive
func validPrice(price *decimal.Decimal) bool {
	return price != nil && price.IsPositive()
}

// PublicBranchesHandler lists every branch for sign-up forms, sorted by name
func PublicBranchesHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached []BranchSummary
		if found, err := cache.Get(ctx, utils.PublicBranchesKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		branches := []BranchSummary{}
		if err := db.WithContext(ctx).Model(&domain.Branch{}).
			Select("id", "name", "address").Order("name asc").Find(&branches).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		_ = cache.Set(ctx, utils.PublicBranchesKey, branches)
		c.JSON(http.StatusOK, branches)
	}
}

// ListBranchesHandler lists every branch with usage counts
func ListBranchesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctxDB := db.WithContext(c.Request.Context())
		var branches []domain.Branch
		if err := ctxDB.Order("name asc").Find(&branches).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		details, err := withCounts(ctxDB, branches)
		if err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		c.JSON(http.StatusOK, details)
	}
}

// GetBranchHandler returns one branch with usage counts
func GetBranchHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		ctxDB := db.WithContext(c.Request.Context())
		var branch domain.Branch
		if err := ctxDB.First(&branch, id).Error; err != nil {
			respondError(c, notFoundAs(err, apperrors.ErrBranchNotFound), logrus.Fields{"branch_id": id})
			return
		}
		details, err := withCounts(ctxDB, []domain.Branch{branch})
		if err != nil {
			respondError(c, err, logrus.Fields{"branch_id": id})
			return
		}
		c.JSON(http.StatusOK, details[0])
	}
}

// CreateBranchHandler adds a branch
func CreateBranchHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req BranchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		branch := domain.Branch{
			Name:    utils.SanitizeText(req.Name, 120),
			Address: utils.SanitizeText(req.Address, 255),
		}
		if branch.Name == "" || branch.Address == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		if !validPrice(req.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than 0"})
			return
		}
		branch.Price = req.Price.Round(2)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&branch).Error; err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionBranchCreate, gin.H{
				"branch_id": branch.ID,
				"name":      branch.Name,
				"address":   branch.Address,
				"price":     branch.Price,
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		_ = cache.Delete(c.Request.Context(), utils.PublicBranchesKey)
		logrus.WithFields(logrus.Fields{"admin_id": me.ID, "branch_id": branch.ID}).Info("Branch created")
		c.JSON(http.StatusCreated, gin.H{"message": "Branch created", "branch": branch})
	}
}

// UpdateBranchHandler changes name, address or price of a branch
func UpdateBranchHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req UpdateBranchRequest
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
		if req.Address != nil {
			address := utils.SanitizeText(*req.Address, 255)
			if address == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Address cannot be empty"})
				return
			}
			updates["address"] = address
		}
		if req.Price != nil {
			if !validPrice(req.Price) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than 0"})
				return
			}
			updates["price"] = req.Price.Round(2)
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}
		var branch domain.Branch
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&branch, id).Error; err != nil {
				return notFoundAs(err, apperrors.ErrBranchNotFound)
			}
			before := branch
			if err := tx.Model(&branch).Updates(updates).Error; err != nil {
				return err
			}
			if err := tx.First(&branch, id).Error; err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionBranchUpdate, gin.H{
				"branch_id": id,
				"before":    gin.H{"name": before.Name, "address": before.Address, "price": before.Price},
				"after":     gin.H{"name": branch.Name, "address": branch.Address, "price": branch.Price},
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "branch_id": id})
			return
		}
		ctx := c.Request.Context()
		_ = cache.Delete(ctx, utils.PublicBranchesKey)
		if req.Price != nil {
			// Balances and dashboards embed the point price
			_ = cache.DeletePrefix(ctx, utils.BalancePrefix)
			_ = cache.DeletePrefix(ctx, utils.DashboardPrefix)
		}
		logrus.WithFields(logrus.Fields{"admin_id": me.ID, "branch_id": id}).Info("Branch updated")
		c.JSON(http.StatusOK, gin.H{"message": "Branch updated", "branch": branch})
	}
}

// DeleteBranchHandler removes a branch nobody references
func DeleteBranchHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var branch domain.Branch
			if err := tx.First(&branch, id).Error; err != nil {
				return notFoundAs(err, apperrors.ErrBranchNotFound)
			}
			users, txs, err := branchCounts(tx, []uint{id})
			if err != nil {
				return err
			}
			if users[id] > 0 || txs[id] > 0 {
				return errBranchInUse
			}
			if err := tx.Delete(&branch).Error; err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionBranchDelete, gin.H{
				"branch_id": id,
				"name":      branch.Name,
				"address":   branch.Address,
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "branch_id": id})
			return
		}
		_ = cache.Delete(c.Request.Context(), utils.PublicBranchesKey)
		logrus.WithFields(logrus.Fields{"admin_id": me.ID, "branch_id": id}).Info("Branch deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Branch deleted"})
	}
}
