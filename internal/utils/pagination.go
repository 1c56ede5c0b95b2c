package utils

import (
	"strconv" // String conversions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Pagination limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 100000 // Keeps Offset far from int overflow
)

// Page is a parsed page/page_size pair
type Page struct {
	Number int // 1-based page number
	Size   int // Items per page
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is the page count needed for total rows
func (p Page) TotalPages(total int64) int {
	return (int(total) + p.Size - 1) / p.Size
}

// ParsePage reads page and page_size query parameters, falling back to defaults on bad input
func ParsePage(c *gin.Context) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Number = min(v, MaxPageNumber)
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= MaxPageSize {
		p.Size = v
	}
	return p
}
