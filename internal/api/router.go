package api

import (
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"loyalty_points/internal/domain"     // Roles
	"loyalty_points/internal/metrics"    // Prometheus exposition
	"loyalty_points/internal/middleware" // Auth and rate limiting
	"loyalty_points/internal/utils"      // Cache

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Deps are the shared dependencies of every handler
type Deps struct {
	DB        *gorm.DB                // Database handle
	Cache     *utils.Cache            // Read-through cache, may wrap a nil client
	JWTSecret string                  // HMAC key for tokens
	TokenTTL  time.Duration           // Token lifetime
	Limiter   *middleware.RateLimiter // Nil disables rate limiting
}

// HealthHandler reports whether the database answers
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logrus.WithError(err).Warn("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	db, cache := d.DB, d.Cache
	staff := middleware.RequireRoles(domain.RoleAdmin, domain.RoleSuperadmin)
	superadmin := middleware.RequireRoles(domain.RoleSuperadmin)

	r.GET("/healthz", HealthHandler(db))            // Liveness and DB check
	r.GET("/metrics", gin.WrapH(metrics.Handler())) // Prometheus scrape endpoint
	r.GET("/branches", PublicBranchesHandler(db, cache))

	// Auth routes, limited per client IP
	authGroup := r.Group("/auth", d.Limiter.Middleware())
	authGroup.POST("/register", RegisterHandler(db))
	authGroup.POST("/login", LoginHandler(db, d.JWTSecret, d.TokenTTL))

	// Everything below needs a valid token and an existing user
	authed := r.Group("")
	authed.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.LoadUserMiddleware(db))

	authed.GET("/profile", GetProfileHandler(db))
	authed.PATCH("/profile", UpdateProfileHandler(db))
	authed.GET("/profile/branch", GetMyBranchHandler(db))

	pointsGroup := authed.Group("/points")
	pointsGroup.GET("/balance", GetBalanceHandler(db, cache))
	pointsGroup.GET("/history", GetHistoryHandler(db, cache))
	pointsGroup.POST("/purchases", d.Limiter.Middleware(), SubmitPurchaseHandler(db, cache))
	pointsGroup.POST("/redeem", d.Limiter.Middleware(), RedeemHandler(db, cache))
	pointsGroup.POST("/approve", staff, ReviewTransactionHandler(db, cache))

	adminGroup := authed.Group("/admin", staff)
	adminGroup.GET("/transactions/pending", PendingTransactionsHandler(db))
	adminGroup.GET("/transactions", ListTransactionsHandler(db, cache))
	adminGroup.GET("/customers", ListCustomersHandler(db))
	adminGroup.POST("/customers", CreateCustomerHandler(db, cache))
	adminGroup.GET("/dashboard", DashboardHandler(db, cache))
	adminGroup.GET("/logs", superadmin, ListAdminLogsHandler(db))
	adminGroup.GET("/branches", superadmin, ListBranchesHandler(db))

	branchGroup := authed.Group("/branches", superadmin)
	branchGroup.POST("", CreateBranchHandler(db, cache))
	branchGroup.GET("/:id", GetBranchHandler(db))
	branchGroup.PATCH("/:id", UpdateBranchHandler(db, cache))
	branchGroup.DELETE("/:id", DeleteBranchHandler(db, cache))

	userGroup := authed.Group("/users", superadmin)
	userGroup.GET("", ListUsersHandler(db))
	userGroup.POST("", CreateUserHandler(db, cache))
	userGroup.GET("/:id", GetUserHandler(db))
	userGroup.PATCH("/:id", UpdateUserHandler(db, cache))
	userGroup.DELETE("/:id", DeleteUserHandler(db, cache))
}
