package utils

import (
	"context"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "admin", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateJWT(1, "customer", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(1, "customer", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewCache(nil, time.Minute)
	assert.False(t, c.Enabled())

	var dest map[string]int
	found, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
	assert.NoError(t, c.DeletePrefix(ctx, "k"))
	assert.NoError(t, c.InvalidateUserPoints(ctx, 7))

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "balance:user:7", BalanceKey(7))
	assert.Equal(t, "txhistory:user:7:page:2:size:20", HistoryKey(7, 2, 20))
	assert.Equal(t, "dashboard:all", DashboardKey(0))
	assert.Equal(t, "dashboard:branch:3", DashboardKey(3))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText("  <b>hello</b>\x00 ", 0))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>", 0))
	assert.Equal(t, "abc", SanitizeText("abcdef", 3))
	assert.Equal(t, "O'Brien & Co", SanitizeText("O'Brien & Co", 0))
	assert.Equal(t, `Tom's tools & "paint"`, SanitizeText(`Tom's tools & "paint"`, 0))
	assert.Equal(t, "A&B", SanitizeText("A&B-1", 3))
	assert.Equal(t, "a < b", SanitizeText("a < b", 0))
	assert.Equal(t, "ana@example.com", NormalizeEmail(" Ana@Example.COM "))
}

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query string
		want  Page
	}{
		{"", Page{Number: 1, Size: 20}},
		{"?page=3&page_size=50", Page{Number: 3, Size: 50}},
		{"?page=-1&page_size=500", Page{Number: 1, Size: 20}},
		{"?page=x&page_size=0", Page{Number: 1, Size: 20}},
		{"?page=4611686018427387904&page_size=100", Page{Number: MaxPageNumber, Size: 100}},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/"+tc.query, nil)
		assert.Equal(t, tc.want, ParsePage(c), tc.query)
	}

	p := Page{Number: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 3, p.TotalPages(41))
	assert.Equal(t, 0, p.TotalPages(0))

	last := Page{Number: MaxPageNumber, Size: MaxPageSize}
	assert.Equal(t, (MaxPageNumber-1)*MaxPageSize, last.Offset())
}

func TestNewRedemptionFolio(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	folio := NewRedemptionFolio(now)
	assert.Regexp(t, regexp.MustCompile(`^R-1700000000123-[0-9a-f]{6}$`), folio)
	assert.NotEqual(t, folio, NewRedemptionFolio(now))
}
