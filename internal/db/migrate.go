package db

import (
	"fmt" // Error wrapping

	"loyalty_points/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Branch prices
	"github.com/sirupsen/logrus"    // Structured logging
	"golang.org/x/crypto/bcrypt"    // Password hashing for seed users
	"gorm.io/gorm"                  // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := db.AutoMigrate(&domain.Branch{}, &domain.User{}, &domain.PointsTransaction{}, &domain.AdminLog{})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// SeedPassword is the password given to every seeded account
const SeedPassword = "Password123!"

// Seed creates a main branch with a superadmin, an admin and three customers.
// It does nothing when any branch already exists.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logrus.Info("Seed skipped, branches already present.")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		branch := domain.Branch{Name: "Main Branch", Address: "123 Main St, Cityville", Price: decimal.RequireFromString("0.5")}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}
		users := []domain.User{
			{Name: "Super Admin", Email: "superadmin@example.com", Role: domain.RoleSuperadmin},
			{Name: "Admin User", Email: "admin@example.com", Role: domain.RoleAdmin},
			{Name: "Client One", Email: "client1@example.com", Role: domain.RoleCustomer},
			{Name: "Client Two", Email: "client2@example.com", Role: domain.RoleCustomer},
			{Name: "Client Three", Email: "client3@example.com", Role: domain.RoleCustomer},
		}
		for i := range users {
			users[i].Password = string(hash)
			users[i].BusinessType = "individual"
			users[i].BranchID = branch.ID
		}
		if err := tx.Create(&users).Error; err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"branch_id": branch.ID,  // Seeded branch
			"users":     len(users), // Seeded accounts
		}).Info("Seed complete.")
		return nil
	})
}
