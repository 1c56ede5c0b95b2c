package domain

import (
	"time" // Time handling

	"github.com/shopspring/decimal" // Decimal arithmetic
)

// Branch Model
type Branch struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	Name      string          `gorm:"size:120;not null" json:"name"`                        // Branch name
	Address   string          `gorm:"size:255;not null" json:"address"`                     // Street address
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.5" json:"price"` // Currency value of one point
	CreatedAt time.Time       `json:"created_at"`                                           // Creation timestamp
	UpdatedAt time.Time       `json:"updated_at"`                                           // Last update timestamp
}
