package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BUILDPROJECT222/ConstructSol/internal/catalog"
	"github.com/BUILDPROJECT222/ConstructSol/internal/models"
	"github.com/BUILDPROJECT222/ConstructSol/internal/services"
	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

// preparedTxError 交易构造失败的统一映射
func preparedTxError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		fail(c, http.StatusBadRequest, "InvalidAddress",
			"The provided address is not a valid Solana public key", err)
	case errors.Is(err, services.ErrInsufficientCustodialBalance):
		// 服务端储备不足，不是用户的问题，按暂时性服务故障返回
		fail(c, http.StatusServiceUnavailable, "InsufficientCustodialBalance",
			"Reward pool is temporarily unavailable, please try again later", err)
	default:
		// 构造过程没有持久化副作用，整单重试是安全的
		fail(c, http.StatusInternalServerError, "SettlementPreparationFailed",
			"Failed to prepare transaction", err)
	}
}

// HarvestHandler POST /api/harvest
// 构造托管钱包 -> 玩家的收获奖励转账，部分签名后交给前端补签提交。
func HarvestHandler(c *gin.Context) {
	var req models.HarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "InvalidRequest", "Missing required parameters", err)
		return
	}

	if !services.IsValidWalletAddress(req.WalletAddress) {
		fail(c, http.StatusBadRequest, "InvalidAddress",
			"Please provide a complete Solana wallet address", nil)
		return
	}
	if _, ok := catalog.ByID(req.PlantType); !ok {
		fail(c, http.StatusBadRequest, "InvalidRequest", "Unknown plant type", nil)
		return
	}

	// 请求里的 reward 是整数代币，这里按配置精度放大一次，
	// builder 只认最小单位
	amount := services.ScaleAmount(req.Reward)

	tx, err := services.BuildRewardTransferTx(c.Request.Context(), req.WalletAddress, amount, req.Blockhash)
	if err != nil {
		preparedTxError(c, err)
		return
	}

	utils.DefaultLogger.Debug("收获交易已构造: wallet=%s plot=%d type=%s amount=%d",
		utils.ShortenAddress(req.WalletAddress), *req.PlotIndex, req.PlantType, amount)

	c.JSON(http.StatusOK, models.PreparedTxResponse{
		Success:     true,
		Transaction: tx,
		TokenMint:   services.TokenMint.String(),
	})
}

// SellHandler POST /api/sell
// 构造出售建材的转账，流程与收获一致，只是金额来自卖价。
func SellHandler(c *gin.Context) {
	var req models.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "InvalidRequest", "Missing required parameters", err)
		return
	}

	if !services.IsValidWalletAddress(req.WalletAddress) {
		fail(c, http.StatusBadRequest, "InvalidAddress",
			"Please provide a complete Solana wallet address", nil)
		return
	}
	if _, ok := catalog.ByID(req.SeedID); !ok {
		fail(c, http.StatusBadRequest, "InvalidRequest", "Unknown seed id", nil)
		return
	}

	amount := services.ScaleAmount(req.SellPrice)

	tx, err := services.BuildRewardTransferTx(c.Request.Context(), req.WalletAddress, amount, req.Blockhash)
	if err != nil {
		preparedTxError(c, err)
		return
	}

	utils.DefaultLogger.Debug("出售交易已构造: wallet=%s seed=%s qty=%d amount=%d",
		utils.ShortenAddress(req.WalletAddress), req.SeedID, req.Quantity, amount)

	c.JSON(http.StatusOK, models.PreparedTxResponse{
		Success:     true,
		Transaction: tx,
		TokenMint:   services.TokenMint.String(),
	})
}

// SeedsHandler GET /api/seeds：建筑目录（价格/奖励/建造时长）
func SeedsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    catalog.Buildings,
	})
}
