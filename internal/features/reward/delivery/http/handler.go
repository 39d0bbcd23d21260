package http

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ad-reward-backend/internal/common/apperrors"
	"ad-reward-backend/internal/common/logger"
	"ad-reward-backend/internal/features/reward/service"
)

// Plain-text bodies the ad network's retry policy keys off.
const (
	bodyInvalidSecret = "Invalid secret."
	bodyInvalidParams = "Invalid parameters."
	bodyProcessed     = "Reward processed."
	bodyServerError   = "Server Error during reward transaction."
)

type RewardHandler struct {
	service service.RewardService
	secret  string
}

func NewRewardHandler(service service.RewardService, secret string) *RewardHandler {
	return &RewardHandler{
		service: service,
		secret:  secret,
	}
}

func (h *RewardHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/monetag-reward", h.HandlePostback)
}

// HandlePostback processes the ad network's server-to-server reward callback.
//
// 403 tells the caller its credentials are wrong and a retry is pointless;
// 400 that the request itself is malformed; 500 that the failure is transient
// and the postback should be retried.
func (h *RewardHandler) HandlePostback(c *gin.Context) {
	secret := c.Query("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		logger.Warn().
			Str("client_ip", c.ClientIP()).
			Msg("Postback rejected: secret mismatch")
		c.String(http.StatusForbidden, bodyInvalidSecret)
		return
	}

	userID := c.Query("user_id")
	points, err := strconv.ParseInt(c.Query("points"), 10, 64)
	if userID == "" || err != nil || points <= 0 {
		logger.Warn().
			Str("client_ip", c.ClientIP()).
			Str("user_id", userID).
			Str("points", c.Query("points")).
			Msg("Postback rejected: invalid parameters")
		c.String(http.StatusBadRequest, bodyInvalidParams)
		return
	}

	if _, err := h.service.Credit(c.Request.Context(), userID, points); err != nil {
		c.String(apperrors.HTTPStatus(err), bodyServerError)
		return
	}

	c.String(http.StatusOK, bodyProcessed)
}
