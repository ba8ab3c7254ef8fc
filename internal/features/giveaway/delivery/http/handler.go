package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service service.GiveawayService
}

func NewGiveawayHandler(service service.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: service}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Conclusion is timer-driven only; there is no endpoint to force an
	// early draw.
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.start)
		giveaways.GET("/:guild_id/active", h.getActive)
		giveaways.POST("/:guild_id/enter", h.enter)
	}
}

type startRequest struct {
	GuildID   string `json:"guild_id" binding:"required"`
	ChannelID string `json:"channel_id" binding:"required"`
	StartedBy string `json:"started_by" binding:"required"`
	Duration  string `json:"duration"`
}

func (h *GiveawayHandler) start(c *gin.Context) {
	var input startRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid start request"))
		return
	}

	result, err := h.service.Start(c.Request.Context(), input.GuildID, input.ChannelID, input.StartedBy, input.Duration)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *GiveawayHandler) getActive(c *gin.Context) {
	giveaway, count, err := h.service.GetActive(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"giveaway": giveaway,
		"entrants": count,
	})
}

type enterRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	TicketCount   int64  `json:"ticket_count" binding:"required"`
}

func (h *GiveawayHandler) enter(c *gin.Context) {
	var input enterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid enter request"))
		return
	}

	result, err := h.service.Enter(c.Request.Context(), c.Param("guild_id"), input.UserID, input.WalletAddress, input.TicketCount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
