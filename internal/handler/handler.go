package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BUILDPROJECT222/ConstructSol/internal/middleware"
)

// Debug 开发配置下为 true，失败响应里才附带底层错误细节
var Debug bool

// fail 统一的失败响应：稳定的错误种类 + 可读信息，细节只在 debug 下给
func fail(c *gin.Context, status int, kind, message string, err error) {
	body := gin.H{
		"success": false,
		"error":   kind,
		"message": message,
	}
	if Debug && err != nil {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}

// RegisterRoutes 注册全部路由。业务接口都在 /api 下，
// 调试接口额外套 LocalOnly。
func RegisterRoutes(r *gin.Engine) {
	r.GET("/", rootHandler)
	r.GET("/healthz", HealthzHandler)
	r.GET("/readyz", ReadinessHandler)

	api := r.Group("/api")
	{
		api.GET("/health", HealthHandler)
		api.GET("/test", testHandler)
		api.GET("/seeds", SeedsHandler)

		api.GET("/leaderboard", LeaderboardHandler)
		api.POST("/leaderboard/update", SettlementHandler)

		api.GET("/game-data/:walletAddress", LoadGameHandler)
		api.POST("/game-data/:walletAddress", SaveGameHandler)
		api.GET("/visit-garden/:walletAddress", VisitGardenHandler)
		api.GET("/history/:walletAddress", HistoryHandler)

		api.POST("/harvest", HarvestHandler)
		api.POST("/sell", SellHandler)

		debug := api.Group("/debug", middleware.LocalOnly())
		debug.GET("/gardens", DebugGardensHandler)
		debug.GET("/garden/:walletAddress", DebugGardenHandler)
	}
}

func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func testHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
