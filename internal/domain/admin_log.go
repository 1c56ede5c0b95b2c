package domain

import (
	"time" // Time handling

	"gorm.io/datatypes" // JSON column type
)

// Audit actions
const (
	ActionBranchCreate       = "branch_create"
	ActionBranchUpdate       = "branch_update"
	ActionBranchDelete       = "branch_delete"
	ActionUserCreate         = "user_create"
	ActionUserUpdate         = "user_update"
	ActionUserDelete         = "user_delete"
	ActionCustomerCreate     = "customer_create"
	ActionTransactionApprove = "transaction_approve"
	ActionTransactionReject  = "transaction_reject"
)

// AdminLog Model, append-only audit trail of privileged mutations
type AdminLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`                                                  // Primary key
	AdminID   uint           `gorm:"not null;index" json:"admin_id"`                                        // Acting admin
	Admin     *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"admin,omitempty"` // Acting admin record
	Action    string         `gorm:"size:64;not null;index" json:"action"`                                  // What was done
	Details   datatypes.JSON `json:"details"`                                                               // Action specific payload
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                               // When it happened
}
