package handlers

import (
	"net/http"

	"marketplace-service/internal/services"
	"marketplace-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	Settlement *services.SettlementService
}

func NewPaymentHandler(settlement *services.SettlementService) *PaymentHandler {
	return &PaymentHandler{Settlement: settlement}
}

type InitiatePaymentRequest struct {
	UserId      int     `json:"user_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

// InitiatePayment returns the signed form fields the client posts to the
// gateway's hosted checkout.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	description := req.Description
	if description == "" {
		description = "Subscription payment"
	}

	payload, err := h.Settlement.InitiatePayment(req.UserId, req.Amount, description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(payload, "Payment initiated"))
}

// Callback receives the gateway's server-to-server notification. The gateway
// posts form-encoded pp_ fields; an invalid hash is rejected outright.
func (h *PaymentHandler) Callback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Malformed callback", nil, http.StatusBadRequest))
		return
	}
	fields := make(map[string]string)
	for k := range c.Request.PostForm {
		fields[k] = c.Request.PostForm.Get(k)
	}

	status, err := h.Settlement.HandleCallback(fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"status": status}, "Callback processed"))
}

// CheckStatus answers a client poll for one transaction reference.
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	txnRefNo := c.Param("txnRefNo")
	if txnRefNo == "" {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Missing transaction reference", nil, http.StatusBadRequest))
		return
	}

	result, err := h.Settlement.CheckStatus(txnRefNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(result, "success"))
}
