package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BUILDPROJECT222/ConstructSol/internal/db"
)

var (
	// startTime 记录服务启动时间
	startTime     time.Time
	startTimeOnce sync.Once
)

// InitStartTime 初始化服务启动时间（只执行一次）
func InitStartTime() {
	startTimeOnce.Do(func() {
		startTime = time.Now()
	})
}

// HealthHandler GET /api/health：前端用的健康检查，带数据库连接状态。
// dbState: 1 已连接，0 未连接（沿用前端已经在解析的数值约定）。
func HealthHandler(c *gin.Context) {
	dbState := 0
	if db.DB != nil {
		if sqlDB, err := db.DB.DB(); err == nil && sqlDB.Ping() == nil {
			dbState = 1
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"dbState":   dbState,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthzHandler 存活探针（liveness probe），只要进程活着就返回 200
func HealthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"type":   "liveness",
	})
}

// ReadinessHandler 就绪探针（readiness probe）：数据库可用才算就绪
func ReadinessHandler(c *gin.Context) {
	if startTime.IsZero() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"type":    "readiness",
			"message": "start time not initialized",
		})
		return
	}

	if db.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"type":    "readiness",
			"message": "database not initialized",
		})
		return
	}

	sqlDB, err := db.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"type":    "readiness",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"type":   "readiness",
		"uptime": time.Since(startTime).String(),
	})
}
