package utils

import (
	"strconv" // String conversions
	"strings" // String manipulation
	"time"    // Time handling

	"github.com/google/uuid" // UUID generation
)

// NewRedemptionFolio builds a folio for a redemption request: R-<unix millis>-<6 hex chars>
func NewRedemptionFolio(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "R-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
