package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"ad-reward-backend/internal/features/reward/repository"
	"ad-reward-backend/internal/features/reward/service"
)

// UserHandler serves the mini-app's read-only view of the ledger. Crediting
// only ever happens through the trusted postback path.
type UserHandler struct {
	service service.RewardService
}

func NewUserHandler(service service.RewardService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/me", h.GetMe)
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
		return
	}

	telegramUser, ok := user.(initdata.User)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user data format"})
		return
	}

	userID := strconv.FormatInt(telegramUser.ID, 10)

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
