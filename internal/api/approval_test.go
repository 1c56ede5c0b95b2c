package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"loyalty_points/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func review(id uint, action string) gin.H {
	return gin.H{"transaction_id": id, "action": action}
}

func TestApproveResolvesOnce(t *testing.T) {
	e := setup(t)
	b := e.branch(t, "Main", "0.5")
	admin := e.user(t, domain.RoleAdmin, b.ID)
	customer := e.user(t, domain.RoleCustomer, b.ID)
	ptx := e.tx(t, customer, domain.TypeEarn, domain.StatusPending, 25)
	tok := token(t, admin)

	w := e.do(t, http.MethodPost, "/points/approve", tok, review(ptx.ID, ReviewApprove))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Message     string                   `json:"message"`
		Transaction domain.PointsTransaction `json:"transaction"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Transaction approved successfully", resp.Message)
	assert.Equal(t, domain.StatusConfirmed, resp.Transaction.Status)

	var stored domain.PointsTransaction
	require.NoError(t, e.db.First(&stored, ptx.ID).Error)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, admin.ID, *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	var log domain.AdminLog
	require.NoError(t, e.db.Where("action = ?", domain.ActionTransactionApprove).First(&log).Error)
	assert.Equal(t, admin.ID, log.AdminID)
	var details map[string]any
	require.NoError(t, json.Unmarshal(log.Details, &details))
	assert.EqualValues(t, ptx.ID, details["transaction_id"])

	for _, action := range []string{ReviewApprove, ReviewReject} {
		w = e.do(t, http.MethodPost, "/points/approve", tok, review(ptx.ID, action))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Transaction already confirmed", errorOf(t, w))
	}
	assert.Equal(t, int64(1), e.auditCount(t, domain.ActionTransactionApprove))
	assert.Equal(t, int64(0), e.auditCount(t, domain.ActionTransactionReject))

	// Confirmed points now count toward the balance
	w = e.do(t, http.MethodGet, "/points/balance", token(t, customer), nil)
	var balance BalanceResponse
	decode(t, w, &balance)
	assert.Equal(t, int64(25), balance.Balance)
}

func TestRejectAndUnknownTransaction(t *testing.T) {
	e := setup(t)
	b := e.branch(t, "Main", "0.5")
	admin := e.user(t, domain.RoleAdmin, b.ID)
	customer := e.user(t, domain.RoleCustomer, b.ID)
	ptx := e.tx(t, customer, domain.TypeRedeem, domain.StatusPending, 10)
	tok := token(t, admin)

	w := e.do(t, http.MethodPost, "/points/approve", tok, review(ptx.ID, ReviewReject))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Transaction rejected successfully")

	w = e.do(t, http.MethodPost, "/points/approve", tok, review(ptx.ID, ReviewApprove))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transaction already rejected", errorOf(t, w))

	w = e.do(t, http.MethodPost, "/points/approve", tok, review(9999, ReviewApprove))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Transaction not found", errorOf(t, w))

	w = e.do(t, http.MethodPost, "/points/approve", tok, review(ptx.ID, "cancel"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApproveIsScopedToBranch(t *testing.T) {
	e := setup(t)
	branchA := e.branch(t, "A", "0.5")
	branchB := e.branch(t, "B", "0.5")
	adminA := e.user(t, domain.RoleAdmin, branchA.ID)
	superadmin := e.user(t, domain.RoleSuperadmin, branchA.ID)
	customerB := e.user(t, domain.RoleCustomer, branchB.ID)
	ptx := e.tx(t, customerB, domain.TypeEarn, domain.StatusPending, 5)

	w := e.do(t, http.MethodPost, "/points/approve", token(t, adminA), review(ptx.ID, ReviewApprove))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Transaction belongs to another branch", errorOf(t, w))

	var stored domain.PointsTransaction
	require.NoError(t, e.db.First(&stored, ptx.ID).Error)
	assert.Equal(t, domain.StatusPending, stored.Status)

	w = e.do(t, http.MethodPost, "/points/approve", token(t, superadmin), review(ptx.ID, ReviewApprove))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomersCannotReview(t *testing.T) {
	e := setup(t)
	b := e.branch(t, "Main", "0.5")
	customer := e.user(t, domain.RoleCustomer, b.ID)
	ptx := e.tx(t, customer, domain.TypeEarn, domain.StatusPending, 5)

	w := e.do(t, http.MethodPost, "/points/approve", token(t, customer), review(ptx.ID, ReviewApprove))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovingRedeemRechecksBalance(t *testing.T) {
	e := setup(t)
	b := e.branch(t, "Main", "0.5")
	admin := e.user(t, domain.RoleAdmin, b.ID)
	customer := e.user(t, domain.RoleCustomer, b.ID)
	e.tx(t, customer, domain.TypeEarn, domain.StatusConfirmed, 100)
	first := e.tx(t, customer, domain.TypeRedeem, domain.StatusPending, 60)
	second := e.tx(t, customer, domain.TypeRedeem, domain.StatusPending, 60)
	tok := token(t, admin)

	w := e.do(t, http.MethodPost, "/points/approve", tok, review(first.ID, ReviewApprove))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/points/approve", tok, review(second.ID, ReviewApprove))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient points balance", errorOf(t, w))

	var stored domain.PointsTransaction
	require.NoError(t, e.db.First(&stored, second.ID).Error)
	assert.Equal(t, domain.StatusPending, stored.Status)

	// Rejecting is always possible
	w = e.do(t, http.MethodPost, "/points/approve", tok, review(second.ID, ReviewReject))
	assert.Equal(t, http.StatusOK, w.Code)
}
