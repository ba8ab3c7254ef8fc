package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/faucet/models"
	"faucet-tool-backend/internal/features/faucet/service"
)

type FaucetHandler struct {
	service service.FaucetService
}

func NewFaucetHandler(service service.FaucetService) *FaucetHandler {
	return &FaucetHandler{service: service}
}

func (h *FaucetHandler) RegisterRoutes(router *gin.RouterGroup) {
	faucet := router.Group("/faucet")
	{
		faucet.POST("/claim", h.claim)
		faucet.GET("/status", h.status)
		faucet.POST("/toggle", h.toggle)
		faucet.GET("/config/:guild_id", h.getConfig)
		faucet.PUT("/config/:guild_id", h.setConfig)
	}
}

type claimRequest struct {
	UserID        string   `json:"user_id" binding:"required"`
	GuildID       string   `json:"guild_id" binding:"required"`
	WalletAddress string   `json:"wallet_address" binding:"required"`
	RoleIDs       []string `json:"role_ids"`
}

func (h *FaucetHandler) claim(c *gin.Context) {
	var input claimRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid claim request"))
		return
	}

	member := models.Member{UserID: input.UserID, RoleIDs: input.RoleIDs}
	result, err := h.service.ProcessClaim(c.Request.Context(), member, input.GuildID, input.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type statusQuery struct {
	UserID        string `form:"user_id" binding:"required"`
	GuildID       string `form:"guild_id" binding:"required"`
	WalletAddress string `form:"wallet_address" binding:"required"`
}

func (h *FaucetHandler) status(c *gin.Context) {
	var input statusQuery
	if err := c.ShouldBindQuery(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid status request"))
		return
	}

	summary, err := h.service.GetStatus(c.Request.Context(), input.UserID, input.GuildID, input.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type toggleRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	GuildID       string `json:"guild_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	Active        *bool  `json:"active" binding:"required"`
}

func (h *FaucetHandler) toggle(c *gin.Context) {
	var input toggleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid toggle request"))
		return
	}

	result, err := h.service.SetActive(c.Request.Context(), input.UserID, input.GuildID, input.WalletAddress, *input.Active)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *FaucetHandler) getConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

type configRequest struct {
	TokenID        string `json:"token_id" binding:"required"`
	AmountPerClaim int64  `json:"amount_per_claim"`
	TokenDecimals  int    `json:"token_decimals"`
	ChannelID      string `json:"channel_id"`
	RoleID         string `json:"role_id"`
	NFTTokenID     string `json:"nft_token_id"`
}

func (h *FaucetHandler) setConfig(c *gin.Context) {
	var input configRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid config request"))
		return
	}

	cfg := &models.FaucetConfig{
		GuildID:        c.Param("guild_id"),
		TokenID:        input.TokenID,
		AmountPerClaim: input.AmountPerClaim,
		TokenDecimals:  input.TokenDecimals,
		ChannelID:      input.ChannelID,
		RoleID:         input.RoleID,
		NFTTokenID:     input.NFTTokenID,
	}
	if err := h.service.SetConfig(c.Request.Context(), cfg); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}
