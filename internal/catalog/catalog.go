// Package catalog 是建筑（"种子"）目录：价格、奖励、建造时长。
// 这是游戏配置数据，前端通过 /api/seeds 读取，后端用它校验请求里的建筑类型。
package catalog

// Building 一种可建造的建筑
type Building struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`      // 购买价格（整数代币）
	Reward      int64  `json:"reward"`     // 收获奖励（整数代币）
	GrowthTime  int64  `json:"growthTime"` // 建造时长（秒）
}

// Buildings 全部建筑类型，顺序即前端展示顺序
var Buildings = []Building{
	{
		ID:          "house",
		Name:        "Luxury Villa",
		Description: "An elegant residential property with premium amenities yielding top-tier rental income",
		Price:       5000,
		Reward:      1000,
		GrowthTime:  3600,
	},
	{
		ID:          "apartment",
		Name:        "Sky Tower Residences",
		Description: "A prestigious high-rise with panoramic views and luxury units commanding premium rents",
		Price:       1000,
		Reward:      1200,
		GrowthTime:  10,
	},
	{
		ID:          "store",
		Name:        "Boutique Emporium",
		Description: "An upscale shopping destination featuring exclusive merchandise and a devoted clientele",
		Price:       1000,
		Reward:      1800,
		GrowthTime:  10,
	},
	{
		ID:          "store1",
		Name:        "Corner Marketplace",
		Description: "A strategically located mini-market with constant customer flow and high-margin impulse buys",
		Price:       1000,
		Reward:      1800,
		GrowthTime:  10,
	},
	{
		ID:          "store2",
		Name:        "Mega Mall Complex",
		Description: "A sprawling commercial paradise with entertainment venues, food courts and flagship stores",
		Price:       1000,
		Reward:      1800,
		GrowthTime:  15,
	},
	{
		ID:          "factory",
		Name:        "Industrial Powerhouse",
		Description: "A state-of-the-art manufacturing facility churning out high-demand goods around the clock",
		Price:       2000,
		Reward:      2600,
		GrowthTime:  20,
	},
}

var byID = func() map[string]Building {
	m := make(map[string]Building, len(Buildings))
	for _, b := range Buildings {
		m[b.ID] = b
	}
	return m
}()

// ByID 按建筑类型查目录，第二个返回值表示是否存在
func ByID(id string) (Building, bool) {
	b, ok := byID[id]
	return b, ok
}
