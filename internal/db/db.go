package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BUILDPROJECT222/ConstructSol/internal/models"
)

var DB *gorm.DB // 在 main 中赋值

// ErrDuplicateSettlement 同一交易签名已经入账过（由 history 表唯一索引触发）
var ErrDuplicateSettlement = errors.New("duplicate settlement")

// AutoMigrate 建表/更新表结构
func AutoMigrate(dbConn *gorm.DB) error {
	return dbConn.AutoMigrate(&models.GameState{}, &models.Leaderboard{}, &models.History{})
}

// legacyShortAddress 旧版本前端曾把显示用的缩写地址（Abcd...wxyz）存进库里。
// 读到完整地址时按这个形式补查一次，命中后立刻迁移为规范地址。
func legacyShortAddress(wallet string) string {
	if len(wallet) < 8 {
		return wallet
	}
	return fmt.Sprintf("%s...%s", wallet[:4], wallet[len(wallet)-4:])
}

// LoadGameState 读取钱包的游戏状态。没有记录不算错误：返回默认的空花园。
// 命中旧缩写地址记录时一次性迁移为完整地址，之后永远走精确匹配。
func LoadGameState(dbConn *gorm.DB, wallet string) (*models.GameState, error) {
	var state models.GameState
	err := dbConn.Where("wallet_address = ?", wallet).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 补查旧格式
		err = dbConn.Where("wallet_address = ?", legacyShortAddress(wallet)).First(&state).Error
		if err == nil {
			// 迁移为完整地址（只会发生一次）
			if uerr := dbConn.Model(&state).Update("wallet_address", wallet).Error; uerr != nil {
				return nil, uerr
			}
			state.WalletAddress = wallet
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now()
		return &models.GameState{
			WalletAddress: wallet,
			Plots:         datatypes.NewJSONSlice(models.DefaultPlots()),
			UserSeeds:     datatypes.NewJSONType(map[string]int64{}),
			HammerPoints:  0,
			LastUpdated:   now,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	normalizeState(&state)
	return &state, nil
}

// SaveGameState 以钱包地址为键 upsert 游戏状态，写入时间戳由服务端盖。
// 同一钱包的并发保存是 last-write-wins：假设一个钱包同一时间只有一个活跃会话，
// 多端同时编辑不在支持范围内。
func SaveGameState(dbConn *gorm.DB, wallet string, payload models.GameDataPayload) (*models.GameState, error) {
	now := time.Now()

	plots := payload.Plots
	if plots == nil {
		plots = models.DefaultPlots()
	}
	for i := range plots {
		plots[i].Normalize()
	}
	seeds := payload.UserSeeds
	if seeds == nil {
		seeds = map[string]int64{}
	}

	state := models.GameState{
		WalletAddress: wallet,
		Plots:         datatypes.NewJSONSlice(plots),
		UserSeeds:     datatypes.NewJSONType(seeds),
		HammerPoints:  payload.HammerPoints,
		LastUpdated:   now,
	}

	err := dbConn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"plots", "user_seeds", "hammer_points", "last_updated", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return nil, err
	}

	// 回读已保存的记录作为响应（统一从库里出，而不是回显请求体）
	var saved models.GameState
	if err := dbConn.Where("wallet_address = ?", wallet).First(&saved).Error; err != nil {
		return nil, err
	}
	normalizeState(&saved)
	return &saved, nil
}

// normalizeState 存储边界上的规范化：补齐/截断到固定地块数并强制空地块不变量
func normalizeState(state *models.GameState) {
	plots := []models.Plot(state.Plots)
	if len(plots) > models.PlotCount {
		plots = plots[:models.PlotCount]
	}
	for len(plots) < models.PlotCount {
		plots = append(plots, models.Plot{ID: len(plots)})
	}
	for i := range plots {
		plots[i].Normalize()
	}
	state.Plots = datatypes.NewJSONSlice(plots)
}

// FormatGameState 实体的规范序列化（所有接口共用一套，不做各自的字段转换）
func FormatGameState(state *models.GameState) models.GameDataResponse {
	return models.GameDataResponse{
		WalletAddress: state.WalletAddress,
		Plots:         []models.Plot(state.Plots),
		UserSeeds:     state.UserSeeds.Data(),
		HammerPoints:  state.HammerPoints,
		LastUpdated:   state.LastUpdated.UTC().Format(time.RFC3339),
	}
}

// TopLeaderboard 按累计奖励倒序取前 limit 名
func TopLeaderboard(dbConn *gorm.DB, limit int) ([]models.LeaderboardEntry, error) {
	var rows []models.Leaderboard
	err := dbConn.Order("total_rewards DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.LeaderboardEntry{
			WalletAddress: row.WalletAddress,
			TotalHarvests: row.TotalHarvests,
			TotalRewards:  row.TotalRewards,
		})
	}
	return entries, nil
}

// ApplySettlement 链上验证通过后的入账：排行榜自增 + 追加历史记录。
// 两步放在同一个数据库事务里，重复签名触发唯一索引时连自增一起回滚，
// 不会出现积分已加但历史缺失（或反过来）的中间状态。
func ApplySettlement(dbConn *gorm.DB, wallet string, harvestCount, totalReward int64, record *models.History) (*models.Leaderboard, error) {
	var updated models.Leaderboard

	err := dbConn.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// upsert + 自增，而不是读-改-写，并发收获不会丢更新
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet_address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_harvests": gorm.Expr("total_harvests + ?", harvestCount),
				"total_rewards":  gorm.Expr("total_rewards + ?", totalReward),
				"last_updated":   now,
				"updated_at":     now,
			}),
		}).Create(&models.Leaderboard{
			WalletAddress: wallet,
			TotalHarvests: harvestCount,
			TotalRewards:  totalReward,
			LastUpdated:   now,
		}).Error
		if err != nil {
			return err
		}

		if record.HarvestedAt.IsZero() {
			record.HarvestedAt = now
		}
		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSettlement
			}
			return err
		}

		return tx.Where("wallet_address = ?", wallet).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// HistoryByWallet 按时间倒序返回钱包的出售/收获历史
func HistoryByWallet(dbConn *gorm.DB, wallet string) ([]models.HistoryEntry, error) {
	var rows []models.History
	err := dbConn.Where("wallet_address = ?", wallet).Order("harvested_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FormatHistory(&row))
	}
	return entries, nil
}

// FormatHistory History 实体的规范序列化
func FormatHistory(row *models.History) models.HistoryEntry {
	return models.HistoryEntry{
		WalletAddress:        row.WalletAddress,
		PlantType:            row.PlantType,
		PlantName:            row.PlantName,
		Reward:               row.Reward,
		TransactionSignature: row.TransactionSignature,
		HarvestedAt:          row.HarvestedAt.UTC().Format(time.RFC3339),
	}
}

// CountLegacyAddresses 统计还没迁移的旧缩写地址记录，启动时打日志用
func CountLegacyAddresses(dbConn *gorm.DB) (int64, error) {
	var count int64
	err := dbConn.Model(&models.GameState{}).Where("wallet_address LIKE ?", "%...%").Count(&count).Error
	return count, err
}

// GardenSummary 调试接口用的花园概览
type GardenSummary struct {
	WalletAddress string `json:"walletAddress"`
	PlotsCount    int    `json:"plotsCount"`
	LastUpdated   string `json:"lastUpdated"`
}

// GardenSummaries 所有花园的概览（仅调试接口使用）
func GardenSummaries(dbConn *gorm.DB) ([]GardenSummary, error) {
	var rows []models.GameState
	if err := dbConn.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]GardenSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, GardenSummary{
			WalletAddress: row.WalletAddress,
			PlotsCount:    len(row.Plots),
			LastUpdated:   row.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
