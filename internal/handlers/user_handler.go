package handlers

import (
	"net/http"
	"strconv"

	"marketplace-service/internal/services"
	"marketplace-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Users        *services.UserService
	Referral     *services.ReferralService
	Subscription *services.SubscriptionService
}

func NewUserHandler(users *services.UserService, referral *services.ReferralService, subscription *services.SubscriptionService) *UserHandler {
	return &UserHandler{Users: users, Referral: referral, Subscription: subscription}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	user, err := h.Users.Register(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(user, "Account created"))
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	user, err := h.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("Invalid credentials", nil, http.StatusUnauthorized))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(user, "Login successful"))
}

func (h *UserHandler) Profile(c *gin.Context) {
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid user id", nil, http.StatusBadRequest))
		return
	}

	user, err := h.Users.GetProfile(userId)
	if err != nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("User not found", nil, http.StatusNotFound))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(user, "success"))
}

func (h *UserHandler) ReferralStats(c *gin.Context) {
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid user id", nil, http.StatusBadRequest))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	stats, err := h.Referral.GetReferralStats(services.ReferralStatsDTO{
		UserId: userId,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error(), nil, http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) SubscriptionStatus(c *gin.Context) {
	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid user id", nil, http.StatusBadRequest))
		return
	}

	user, err := h.Subscription.Status(userId)
	if err != nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("User not found", nil, http.StatusNotFound))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"active":          user.SubIsActive,
		"purchase_date":   user.SubPurchaseDate,
		"expiry_date":     user.SubExpiryDate,
		"amount_paid":     user.SubAmountPaid,
		"subscription_id": user.SubSubscriptionId,
		"referral_code":   user.ReferralCode,
	}, "success"))
}
