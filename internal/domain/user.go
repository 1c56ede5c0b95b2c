package domain

import "time" // Time handling

// Roles a user can hold
const (
	RoleCustomer   = "customer"   // Earns and redeems points
	RoleAdmin      = "admin"      // Reviews transactions of their own branch
	RoleSuperadmin = "superadmin" // Manages branches, users and every transaction
)

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                                   // Primary key
	Name         string    `gorm:"size:120;not null" json:"name"`                                          // Display name
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`                             // Unique login email
	Password     string    `gorm:"not null" json:"-"`                                                      // Hashed password, never serialized
	Phone        *string   `gorm:"size:32" json:"phone"`                                                   // Optional phone number
	BusinessType string    `gorm:"size:64" json:"business_type"`                                           // Kind of business the customer runs
	Role         string    `gorm:"size:16;not null;default:customer;index" json:"role"`                    // customer, admin or superadmin
	BranchID     uint      `gorm:"not null;index" json:"branch_id"`                                        // Foreign key to Branch
	Branch       *Branch   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"branch,omitempty"` // Owning branch
	CreatedAt    time.Time `json:"created_at"`                                                             // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at"`                                                             // Last update timestamp
}

// IsSuperadmin reports whether the user has unrestricted access
func (u User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

// CanAccessBranch reports whether the user may act on data of the given branch
func (u User) CanAccessBranch(branchID uint) bool {
	return u.IsSuperadmin() || u.BranchID == branchID
}

// ValidRole checks a role string against the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}
