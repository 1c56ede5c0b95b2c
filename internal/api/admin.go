package api

import (
	"net/http" // HTTP status codes
	"sort"     // Recent activity ordering
	"strconv"  // Query parsing
	"strings"  // Search terms
	"time"     // Date filters

	"loyalty_points/internal/apperrors" // Domain errors
	"loyalty_points/internal/domain"    // Importing domain models
	"loyalty_points/internal/points"    // Balance arithmetic
	"loyalty_points/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	recentPerCustomer = 5                   // Transactions shown per customer
	activeWindow      = 30 * 24 * time.Hour // Activity window of the dashboard
	dateLayout        = "2006-01-02"
)

// defaultPointPrice values points when no branch exists
var defaultPointPrice = decimal.RequireFromString("0.5")

// scopeKey names the branch scope of a user for cache keys
func scopeKey(user domain.User) string {
	if user.IsSuperadmin() {
		return "all"
	}
	return "branch:" + strconv.FormatUint(uint64(user.BranchID), 10)
}

// PendingTransactionsHandler lists pending transactions of the reviewer's scope, oldest first
func PendingTransactionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		txs := []domain.PointsTransaction{}
		if err := db.WithContext(c.Request.Context()).Scopes(branchScope(me)).
			Preload("User").Preload("Branch").
			Where("status = ?", domain.StatusPending).
			Order("created_at asc").Order("id asc").Find(&txs).Error; err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
	}
}

// txFilter holds the validated query filters of the admin transaction listing
type txFilter struct {
	UserID uint
	Type   string
	Status string
	From   *time.Time
	To     *time.Time // Exclusive upper bound, the day after the requested date
}

// parseTxFilter validates the listing query parameters
func parseTxFilter(c *gin.Context) (txFilter, error) {
	var f txFilter
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperrors.BadRequest("Invalid user_id")
		}
		f.UserID = uint(id)
	}
	if v := c.Query("type"); v != "" {
		if v != domain.TypeEarn && v != domain.TypeRedeem {
			return f, apperrors.BadRequest("Invalid type")
		}
		f.Type = v
	}
	if v := c.Query("status"); v != "" {
		switch v {
		case domain.StatusPending, domain.StatusConfirmed, domain.StatusRedeemed, domain.StatusRejected:
			f.Status = v
		default:
			return f, apperrors.BadRequest("Invalid status")
		}
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, apperrors.BadRequest("Invalid from date, expected YYYY-MM-DD")
		}
		f.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, apperrors.BadRequest("Invalid to date, expected YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	return f, nil
}

// apply adds the filter conditions to a transaction query
func (f txFilter) apply(db *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at < ?", *f.To)
	}
	return db
}

// ListTransactionsHandler lists transactions of the reviewer's scope with filters and pagination
func ListTransactionsHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		filter, err := parseTxFilter(c)
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		page := utils.ParsePage(c)
		ctx := c.Request.Context()
		cacheKey := utils.AdminTxListPrefix + scopeKey(me) + ":" + c.Request.URL.Query().Encode()
		var cached txPage
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		query := filter.apply(db.WithContext(ctx).Model(&domain.PointsTransaction{}).Scopes(branchScope(me)))
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		resp := txPage{Transactions: []domain.PointsTransaction{}, Page: page.Number, PageSize: page.Size, Total: total, TotalPages: page.TotalPages(total)}
		if err := query.Preload("User").Preload("Branch").
			Order("created_at desc").Order("id desc").
			Offset(page.Offset()).Limit(page.Size).Find(&resp.Transactions).Error; err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		_ = cache.Set(ctx, cacheKey, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// CustomerStats is one row of the admin customer listing
type CustomerStats struct {
	Customer         domain.User                `json:"customer"`            // Customer record
	Stats            points.Summary             `json:"stats"`               // Balance figures
	TransactionCount int                        `json:"transaction_count"`   // Every transaction of the customer
	LastActivity     *time.Time                 `json:"last_activity"`       // Newest transaction
	Recent           []domain.PointsTransaction `json:"recent_transactions"` // Newest transactions first
}

// ListCustomersHandler lists the customers of the reviewer's scope with their points statistics
func ListCustomersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		page := utils.ParsePage(c)
		ctxDB := db.WithContext(c.Request.Context())
		query := ctxDB.Model(&domain.User{}).Scopes(branchScope(me)).Where("role = ?", domain.RoleCustomer)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		var customers []domain.User
		if err := query.Preload("Branch").Order("name asc").Order("id asc").
			Offset(page.Offset()).Limit(page.Size).Find(&customers).Error; err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}

		ids := make([]uint, 0, len(customers))
		for _, u := range customers {
			ids = append(ids, u.ID)
		}
		byUser := make(map[uint][]domain.PointsTransaction, len(customers))
		if len(ids) > 0 {
			var txs []domain.PointsTransaction
			if err := ctxDB.Where("user_id IN ?", ids).Find(&txs).Error; err != nil {
				respondError(c, err, logrus.Fields{"admin_id": me.ID})
				return
			}
			for _, t := range txs {
				byUser[t.UserID] = append(byUser[t.UserID], t)
			}
		}

		rows := make([]CustomerStats, 0, len(customers))
		for _, u := range customers {
			txs := byUser[u.ID]
			sort.Slice(txs, func(i, j int) bool {
				if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
					return txs[i].ID > txs[j].ID
				}
				return txs[i].CreatedAt.After(txs[j].CreatedAt)
			})
			row := CustomerStats{Customer: u, Stats: points.Summarize(txs), TransactionCount: len(txs), Recent: []domain.PointsTransaction{}}
			if len(txs) > 0 {
				last := txs[0].CreatedAt
				row.LastActivity = &last
				row.Recent = txs[:min(recentPerCustomer, len(txs))]
			}
			rows = append(rows, row)
		}
		c.JSON(http.StatusOK, gin.H{
			"customers":   rows,
			"page":        page.Number,
			"page_size":   page.Size,
			"total":       total,
			"total_pages": page.TotalPages(total),
		})
	}
}

// CreateCustomerRequest is the payload an admin uses to register a customer
type CreateCustomerRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required"`
	Phone        *string `json:"phone"`
	BusinessType string  `json:"business_type"`
	BranchID     *uint   `json:"branch_id"` // Honored for superadmins only
}

// CreateCustomerHandler registers a customer on behalf of the caller. Admins always create
// customers in their own branch.
func CreateCustomerHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		var req CreateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		branchID := req.BranchID
		if !me.IsSuperadmin() {
			own := me.BranchID
			branchID = &own
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
				BranchID:     branchID,
			})
			if err != nil {
				return err
			}
			return writeAdminLog(tx, me.ID, domain.ActionCustomerCreate, gin.H{
				"user_id":   user.ID,
				"email":     user.Email,
				"branch_id": user.BranchID,
			})
		})
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID, "email": req.Email})
			return
		}
		_ = cache.DeletePrefix(c.Request.Context(), utils.DashboardPrefix) // Customer counts changed
		logrus.WithFields(logrus.Fields{
			"admin_id":  me.ID,
			"user_id":   user.ID,
			"branch_id": user.BranchID,
		}).Info("Customer created")
		c.JSON(http.StatusCreated, gin.H{"message": "Customer created", "user": user})
	}
}

// DashboardStats are the headline figures of the admin dashboard
type DashboardStats struct {
	TotalCustomers      int64           `json:"total_customers"`
	ActiveCustomers     int64           `json:"active_customers"` // Customers with a transaction in the last 30 days
	ConfirmedPurchases  int64           `json:"confirmed_purchases"`
	PendingTransactions int64           `json:"pending_transactions"`
	PointsEarned        int64           `json:"points_earned"`
	PointsRedeemed      int64           `json:"points_redeemed"`
	PurchaseAmount      decimal.Decimal `json:"purchase_amount"`
	RedemptionAmount    decimal.Decimal `json:"redemption_amount"`
	OutstandingPoints   int64           `json:"outstanding_points"`
	PointPrice          decimal.Decimal `json:"point_price"`
	Liabilities         decimal.Decimal `json:"liabilities"` // Outstanding points valued at the point price
	Cached              bool            `json:"cached"`
}

// loadDashboard aggregates the dashboard figures of a scope
func loadDashboard(db *gorm.DB, me domain.User) (DashboardStats, error) {
	stats := DashboardStats{PurchaseAmount: decimal.Zero, RedemptionAmount: decimal.Zero}
	if err := db.Model(&domain.User{}).Scopes(branchScope(me)).
		Where("role = ?", domain.RoleCustomer).Count(&stats.TotalCustomers).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&domain.PointsTransaction{}).Scopes(branchScope(me)).
		Where("created_at >= ?", time.Now().UTC().Add(-activeWindow)).
		Distinct("user_id").Count(&stats.ActiveCustomers).Error; err != nil {
		return stats, err
	}

	rows, err := db.Model(&domain.PointsTransaction{}).Scopes(branchScope(me)).
		Select("type, status, COUNT(*), COALESCE(SUM(points), 0), COALESCE(SUM(amount), 0)").
		Group("type, status").Rows()
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ, status string
			count, pts  int64
			amount      decimal.Decimal
		)
		if err := rows.Scan(&typ, &status, &count, &pts, &amount); err != nil {
			return stats, err
		}
		switch {
		case status == domain.StatusPending:
			stats.PendingTransactions += count
		case status == domain.StatusConfirmed && typ == domain.TypeEarn:
			stats.ConfirmedPurchases = count
			stats.PointsEarned = pts
			stats.PurchaseAmount = amount
		case status == domain.StatusConfirmed && typ == domain.TypeRedeem:
			stats.PointsRedeemed = pts
			stats.RedemptionAmount = amount
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	stats.PointPrice = defaultPointPrice
	if me.IsSuperadmin() {
		var avg decimal.NullDecimal // NULL without branches
		if err := db.Model(&domain.Branch{}).Select("AVG(price)").Row().Scan(&avg); err != nil {
			return stats, err
		}
		if avg.Valid {
			stats.PointPrice = avg.Decimal.Round(2)
		}
	} else {
		var branch domain.Branch
		if err := db.First(&branch, me.BranchID).Error; err != nil {
			return stats, notFoundAs(err, apperrors.ErrBranchNotFound)
		}
		stats.PointPrice = branch.Price
	}
	stats.OutstandingPoints = stats.PointsEarned - stats.PointsRedeemed
	stats.Liabilities = points.Value(stats.OutstandingPoints, stats.PointPrice)
	return stats, nil
}

// DashboardHandler returns the dashboard figures of the reviewer's scope
func DashboardHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var scope uint // 0 covers every branch
		if !me.IsSuperadmin() {
			scope = me.BranchID
		}
		cacheKey := utils.DashboardKey(scope)
		var cached DashboardStats
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
		stats, err := loadDashboard(db.WithContext(ctx), me)
		if err != nil {
			respondError(c, err, logrus.Fields{"admin_id": me.ID})
			return
		}
		_ = cache.Set(ctx, cacheKey, stats)
		c.JSON(http.StatusOK, stats)
	}
}

// ListAdminLogsHandler pages through the audit trail, newest first
func ListAdminLogsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := utils.ParsePage(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.AdminLog{})
		if action := c.Query("action"); action != "" {
			query = query.Where("action = ?", action)
		}
		if v := c.Query("admin_id"); v != "" {
			adminID, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid admin_id"})
				return
			}
			query = query.Where("admin_id = ?", adminID)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		logs := []domain.AdminLog{}
		if err := query.Preload("Admin").Order("created_at desc").Order("id desc").
			Offset(page.Offset()).Limit(page.Size).Find(&logs).Error; err != nil {
			respondError(c, err, logrus.Fields{"path": c.FullPath()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"page":        page.Number,
			"page_size":   page.Size,
			"total":       total,
			"total_pages": page.TotalPages(total),
		})
	}
}
