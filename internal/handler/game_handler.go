package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BUILDPROJECT222/ConstructSol/internal/db"
	"github.com/BUILDPROJECT222/ConstructSol/internal/models"
	"github.com/BUILDPROJECT222/ConstructSol/internal/services"
	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

// walletParam 取路径里的钱包地址并做前置校验。
// 必须是完整的规范地址，缩写显示格式直接 400，不做任何兜底恢复。
func walletParam(c *gin.Context) (string, bool) {
	wallet := c.Param("walletAddress")
	if !services.IsValidWalletAddress(wallet) {
		fail(c, http.StatusBadRequest, "InvalidAddress",
			"Please provide a complete Solana wallet address", nil)
		return "", false
	}
	return wallet, true
}

// LoadGameHandler GET /api/game-data/:walletAddress
// 没有记录时返回默认空花园，不报错。
func LoadGameHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	state, err := db.LoadGameState(db.DB, wallet)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to load game data", err)
		return
	}

	resp := db.FormatGameState(state)
	c.JSON(http.StatusOK, resp)
}

// SaveGameHandler POST /api/game-data/:walletAddress
// 以钱包地址为键 upsert，保存后的记录从库里回读返回。
func SaveGameHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	var req models.SaveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "InvalidRequest", "Missing or malformed gameData", err)
		return
	}

	saved, err := db.SaveGameState(db.DB, wallet, req.GameData)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to save game data", err)
		return
	}

	utils.DefaultLogger.Debug("已保存游戏数据: %s", utils.ShortenAddress(wallet))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    db.FormatGameState(saved),
		"message": "Game data saved successfully",
	})
}

// VisitGardenHandler GET /api/visit-garden/:walletAddress
// 参观他人花园的只读快照，没有记录时 404。
func VisitGardenHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}

	state, err := db.LoadGameState(db.DB, wallet)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to load garden", err)
		return
	}
	// load 对不存在的钱包返回默认记录；参观语义要求区分出来
	if state.ID == 0 {
		fail(c, http.StatusNotFound, "GardenNotFound", "Garden not found", nil)
		return
	}

	formatted := db.FormatGameState(state)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": models.VisitGardenResponse{
			OwnerAddress: formatted.WalletAddress,
			Plots:        formatted.Plots,
			LastUpdated:  formatted.LastUpdated,
		},
	})
}

// DebugGardensHandler GET /api/debug/gardens（仅本机）：全部花园概览
func DebugGardensHandler(c *gin.Context) {
	gardens, err := db.GardenSummaries(db.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to list gardens", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalGardens": len(gardens),
		"gardens":      gardens,
	})
}

// DebugGardenHandler GET /api/debug/garden/:walletAddress（仅本机）：单个花园原始记录
func DebugGardenHandler(c *gin.Context) {
	wallet, ok := walletParam(c)
	if !ok {
		return
	}
	state, err := db.LoadGameState(db.DB, wallet)
	if err != nil {
		fail(c, http.StatusInternalServerError, "StorageError", "Failed to load garden", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"found": state.ID != 0,
		"data":  db.FormatGameState(state),
	})
}
