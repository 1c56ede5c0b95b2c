package domain

import (
	"time" // Time handling

	"github.com/shopspring/decimal" // Decimal arithmetic
)

// Transaction types
const (
	TypeEarn   = "earn"   // Points earned from a purchase receipt
	TypeRedeem = "redeem" // Points exchanged for store credit
)

// Transaction statuses
const (
	StatusPending   = "pending"   // Waiting for admin review
	StatusConfirmed = "confirmed" // Approved by an admin
	StatusRedeemed  = "redeemed"  // Reserved for fulfilled redemptions
	StatusRejected  = "rejected"  // Declined by an admin
)

// PointsTransaction Model
type PointsTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                                   // Primary key
	UserID      uint            `gorm:"not null;uniqueIndex:idx_points_tx_user_folio" json:"user_id"`           // Foreign key to User
	User        *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"user,omitempty"`   // Owner
	BranchID    uint            `gorm:"not null;index" json:"branch_id"`                                        // Foreign key to Branch
	Branch      *Branch         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"branch,omitempty"` // Branch the points belong to
	Type        string          `gorm:"size:16;not null;index" json:"type"`                                     // earn or redeem
	Points      int64           `gorm:"not null" json:"points"`                                                 // Number of points
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`                    // Purchase or credit amount
	Status      string          `gorm:"size:16;not null;default:pending;index" json:"status"`                   // Review status
	Folio       string          `gorm:"size:64;not null;uniqueIndex:idx_points_tx_user_folio" json:"folio"`     // Receipt or redemption reference, unique per user
	ReceiptURL  *string         `gorm:"size:512" json:"receipt_url,omitempty"`                                  // Location of the receipt image
	Description string          `gorm:"size:500" json:"description"`                                            // Free text supplied by the customer
	ReviewedBy  *uint           `json:"reviewed_by,omitempty"`                                                  // Admin that resolved the transaction
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`                                                  // When it was resolved
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`                                                // Creation timestamp
	UpdatedAt   time.Time       `json:"updated_at"`                                                             // Last update timestamp
}

// IsPending reports whether the transaction still awaits review
func (t PointsTransaction) IsPending() bool {
	return t.Status == StatusPending
}
