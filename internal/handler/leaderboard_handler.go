package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BUILDPROJECT222/ConstructSol/internal/catalog"
	"github.com/BUILDPROJECT222/ConstructSol/internal/db"
	"github.com/BUILDPROJECT222/ConstructSol/internal/models"
	"github.com/BUILDPROJECT222/ConstructSol/internal/services"
	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

// leaderboardLimit 排行榜固定取前 10 名
const leaderboardLimit = 10

// LeaderboardHandler GET /api/leaderboard
func LeaderboardHandler(c *gin.Context) {
	entries, err := db.TopLeaderboard(db.DB, leaderboardLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to fetch leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// SettlementHandler POST /api/leaderboard/update
// 结算确认：先在链上核实签名对应的交易（成功执行、确实经过托管账户），
// 核实全部通过才入账。入账是排行榜自增 + 历史追加的单个数据库事务，
// 重复签名会触发历史表的唯一索引并整体回滚。
func SettlementHandler(c *gin.Context) {
	var req models.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "InvalidRequest",
			"Wallet address and transaction signature are required", err)
		return
	}

	if !services.IsValidWalletAddress(req.WalletAddress) {
		fail(c, http.StatusBadRequest, "InvalidAddress",
			"Please provide a complete Solana wallet address", nil)
		return
	}

	if err := services.VerifySettlement(c.Request.Context(), req.TransactionSignature); err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			// 签名可能还没传播开，让前端退避后用同一个签名重试
			fail(c, http.StatusNotFound, "TransactionNotFound",
				"Transaction not found yet, please retry shortly", err)
		case errors.Is(err, services.ErrTransactionFailed):
			fail(c, http.StatusBadRequest, "TransactionFailed",
				"Transaction failed or was rejected on-chain", err)
		case errors.Is(err, services.ErrUnauthorizedTransaction):
			fail(c, http.StatusBadRequest, "UnauthorizedTransaction",
				"Transaction does not involve this service", err)
		default:
			fail(c, http.StatusInternalServerError, "VerificationError",
				"Failed to verify transaction", err)
		}
		return
	}

	plantName := req.PlantName
	if plantName == "" {
		if b, ok := catalog.ByID(req.PlantType); ok {
			plantName = b.Name
		}
	}

	record := &models.History{
		WalletAddress:        req.WalletAddress,
		PlantType:            req.PlantType,
		PlantName:            plantName,
		Reward:               req.TotalReward,
		TransactionSignature: req.TransactionSignature,
		HarvestedAt:          time.Now(),
	}

	updated, err := db.ApplySettlement(db.DB, req.WalletAddress, req.HarvestCount, req.TotalReward, record)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateSettlement) {
			fail(c, http.StatusConflict, "DuplicateSettlement",
				"This transaction was already credited", err)
			return
		}
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to update leaderboard", err)
		return
	}

	utils.DefaultLogger.Info("结算入账: wallet=%s harvests=%d rewards=%d",
		utils.ShortenAddress(req.WalletAddress), updated.TotalHarvests, updated.TotalRewards)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": models.LeaderboardEntry{
			WalletAddress: updated.WalletAddress,
			TotalHarvests: updated.TotalHarvests,
			TotalRewards:  updated.TotalRewards,
		},
		"message": "Leaderboard updated successfully",
	})
}

// HistoryHandler GET /api/history/:walletAddress，按时间倒序
func HistoryHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	entries, err := db.HistoryByWallet(db.DB, wallet)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to fetch history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}
