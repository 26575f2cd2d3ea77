package handlers

import (
	"net/http"
	"strconv"

	"marketplace-service/internal/services"
	"marketplace-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	Withdrawals *services.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{Withdrawals: withdrawals}
}

type RequestWithdrawalRequest struct {
	UserId int     `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

func (h *WithdrawalHandler) RequestWithdrawal(c *gin.Context) {
	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	withdrawal, err := h.Withdrawals.RequestWithdrawal(req.UserId, req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(withdrawal, "Withdrawal requested"))
}

type UpdateWithdrawalRequest struct {
	Status    *int   `json:"status" binding:"required"`
	Comment   string `json:"comment"`
	UpdatedBy string `json:"updated_by"`
}

func (h *WithdrawalHandler) UpdateStatus(c *gin.Context) {
	withdrawalId, err := strconv.Atoi(c.Param("withdrawalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid withdrawal id", nil, http.StatusBadRequest))
		return
	}

	var req UpdateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	if err := h.Withdrawals.UpdateWithdrawalStatus(withdrawalId, *req.Status, req.Comment, req.UpdatedBy); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(nil, "Withdrawal updated"))
}

func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userId, err := strconv.Atoi(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid user_id", nil, http.StatusBadRequest))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.Withdrawals.ListWithdrawals(userId, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, result)
}

type SaveAccountRequest struct {
	UserId        int    `json:"user_id" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
}

func (h *WithdrawalHandler) SaveAccount(c *gin.Context) {
	var req SaveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	account, err := h.Withdrawals.SaveWithdrawalAccount(req.UserId, req.AccountNumber, req.AccountHolder, req.BankName)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(account, "Withdrawal account saved"))
}
