package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlotCount 每个钱包固定的地块数量
const PlotCount = 20

// Plot 花园网格中的一个地块
type Plot struct {
	ID             int        `json:"id"`
	Planted        bool       `json:"planted"`
	PlantType      *string    `json:"plantType"`
	GrowthStage    int        `json:"growthStage"`
	IsWatered      bool       `json:"isWatered"`
	PlantedAt      *time.Time `json:"plantedAt"`
	ReadyToHarvest bool       `json:"readyToHarvest"`
}

// Normalize 强制空地块的不变量：未种植时类型/时间必须为空，生长阶段归零。
// 在存储边界统一调用，而不是在每个接口里临时转换字段。
func (p *Plot) Normalize() {
	if !p.Planted {
		p.PlantType = nil
		p.PlantedAt = nil
		p.GrowthStage = 0
		p.IsWatered = false
		p.ReadyToHarvest = false
	}
}

// DefaultPlots 返回一块全空的花园（首次加载时使用）
func DefaultPlots() []Plot {
	plots := make([]Plot, PlotCount)
	for i := range plots {
		plots[i] = Plot{ID: i}
	}
	return plots
}

// GameState 每个钱包一条，保存地块与建材库存
type GameState struct {
	gorm.Model
	WalletAddress string                               `gorm:"uniqueIndex;size:44"` // Solana 地址长度
	Plots         datatypes.JSONSlice[Plot]            `gorm:"column:plots"`
	UserSeeds     datatypes.JSONType[map[string]int64] `gorm:"column:user_seeds"`
	HammerPoints  int64
	LastUpdated   time.Time
}

// Leaderboard 每个钱包一条，只通过原子自增更新
type Leaderboard struct {
	gorm.Model
	WalletAddress string `gorm:"uniqueIndex;size:44"`
	TotalHarvests int64
	TotalRewards  int64
	LastUpdated   time.Time
}

// History 每笔已验证的收获/出售一条，只追加不修改。
// 交易签名上的唯一索引是重复结算的幂等保证（由数据库强制，而不是应用层）。
type History struct {
	gorm.Model
	WalletAddress        string    `gorm:"index;size:44"`
	PlantType            string    `gorm:"size:32"`
	PlantName            string    `gorm:"size:64"`
	Reward               int64
	TransactionSignature string    `gorm:"uniqueIndex;size:88"` // 交易签名（唯一索引）
	HarvestedAt          time.Time `gorm:"index"`
}
