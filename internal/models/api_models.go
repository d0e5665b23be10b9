package models

// HarvestRequest 收获奖励的交易构造请求
type HarvestRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	PlotIndex     *int   `json:"plotIndex" binding:"required"`
	PlantType     string `json:"plantType" binding:"required"`
	Reward        uint64 `json:"reward" binding:"required"`
	Blockhash     string `json:"blockhash" binding:"required"` // 前端获取的最新 blockhash（前端离提交时间更近）
}

// SellRequest 出售建材的交易构造请求
type SellRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	SeedID        string `json:"seedId" binding:"required"`
	Quantity      uint64 `json:"quantity" binding:"required"`
	SellPrice     uint64 `json:"sellPrice" binding:"required"` // 整数代币数量（未按精度放大）
	Blockhash     string `json:"blockhash" binding:"required"`
}

// PreparedTxResponse 返回给前端签名的部分签名交易
type PreparedTxResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction"` // base64 序列化交易
	TokenMint   string `json:"tokenMint"`
}

// SettlementRequest 结算确认请求（前端提交交易后上报签名）
type SettlementRequest struct {
	WalletAddress        string `json:"walletAddress" binding:"required"`
	HarvestCount         int64  `json:"harvestCount"`
	TotalReward          int64  `json:"totalReward"`
	TransactionSignature string `json:"transactionSignature" binding:"required"`
	PlantType            string `json:"plantType"`
	PlantName            string `json:"plantName"`
}

// GameDataPayload 保存请求中嵌套的 gameData 文档
type GameDataPayload struct {
	Plots        []Plot           `json:"plots"`
	UserSeeds    map[string]int64 `json:"userSeeds"`
	HammerPoints int64            `json:"hammerPoints"`
}

// SaveGameRequest POST /api/game-data/:walletAddress 请求体
type SaveGameRequest struct {
	GameData GameDataPayload `json:"gameData" binding:"required"`
}

// GameDataResponse load/save 的统一响应形状（每个实体一套序列化，见 db 包）
type GameDataResponse struct {
	WalletAddress string           `json:"walletAddress"`
	Plots         []Plot           `json:"plots"`
	UserSeeds     map[string]int64 `json:"userSeeds"`
	HammerPoints  int64            `json:"hammerPoints"`
	LastUpdated   string           `json:"lastUpdated"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	WalletAddress string `json:"walletAddress"`
	TotalHarvests int64  `json:"totalHarvests"`
	TotalRewards  int64  `json:"totalRewards"`
}

// HistoryEntry 出售/收获历史条目
type HistoryEntry struct {
	WalletAddress        string `json:"walletAddress"`
	PlantType            string `json:"plantType"`
	PlantName            string `json:"plantName"`
	Reward               int64  `json:"reward"`
	TransactionSignature string `json:"transactionSignature"`
	HarvestedAt          string `json:"harvestedAt"`
}

// VisitGardenResponse 参观他人花园的只读快照
type VisitGardenResponse struct {
	OwnerAddress string `json:"ownerAddress"`
	Plots        []Plot `json:"plots"`
	LastUpdated  string `json:"lastUpdated"`
}
