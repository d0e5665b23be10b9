package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BUILDPROJECT222/ConstructSol/internal/db"
	"github.com/BUILDPROJECT222/ConstructSol/internal/models"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbConn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(dbConn))

	prev := db.DB
	db.DB = dbConn
	t.Cleanup(func() { db.DB = prev })

	r := gin.New()
	InitStartTime()
	RegisterRoutes(r)
	return r
}

// validWallet 生成一个 44 字符的真实 Solana 地址
func validWallet(t *testing.T) string {
	t.Helper()
	for i := 0; i < 64; i++ {
		addr := solana.NewWallet().PublicKey().String()
		if len(addr) == 44 {
			return addr
		}
	}
	t.Fatal("无法生成 44 字符地址")
	return ""
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
	require.Equal(t, float64(1), resp["dbState"])
	require.NotEmpty(t, resp["timestamp"])
}

func TestLoadGameDataDefaults(t *testing.T) {
	r := newTestRouter(t)
	wallet := validWallet(t)

	w := doJSON(t, r, http.MethodGet, "/api/game-data/"+wallet, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GameDataResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, wallet, resp.WalletAddress)
	require.Len(t, resp.Plots, models.PlotCount)
	for _, plot := range resp.Plots {
		require.False(t, plot.Planted)
		require.Nil(t, plot.PlantType)
	}
	require.Zero(t, resp.HammerPoints)
}

func TestGameDataRejectsShortAddress(t *testing.T) {
	r := newTestRouter(t)
	wallet := validWallet(t)

	// 43 字符的截断地址和缩写显示格式都必须被拒
	for _, bad := range []string{wallet[:43], wallet[:4] + "..." + wallet[40:]} {
		w := doJSON(t, r, http.MethodGet, "/api/game-data/"+bad, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, "address %q", bad)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, "InvalidAddress", resp["error"])
	}
}

func TestSaveThenLoadGameData(t *testing.T) {
	r := newTestRouter(t)
	wallet := validWallet(t)

	plantType := "apartment"
	plots := models.DefaultPlots()
	plots[1].Planted = true
	plots[1].PlantType = &plantType
	plots[1].GrowthStage = 1

	save := doJSON(t, r, http.MethodPost, "/api/game-data/"+wallet, models.SaveGameRequest{
		GameData: models.GameDataPayload{
			Plots:        plots,
			UserSeeds:    map[string]int64{"apartment": 3},
			HammerPoints: 12,
		},
	})
	require.Equal(t, http.StatusOK, save.Code)

	load := doJSON(t, r, http.MethodGet, "/api/game-data/"+wallet, nil)
	require.Equal(t, http.StatusOK, load.Code)

	var resp models.GameDataResponse
	require.NoError(t, json.Unmarshal(load.Body.Bytes(), &resp))
	require.Equal(t, int64(12), resp.HammerPoints)
	require.Equal(t, int64(3), resp.UserSeeds["apartment"])
	require.True(t, resp.Plots[1].Planted)
	require.NotNil(t, resp.Plots[1].PlantType)
	require.Equal(t, "apartment", *resp.Plots[1].PlantType)
}

func TestVisitGardenNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/visit-garden/"+validWallet(t), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVisitGardenReadOnlySnapshot(t *testing.T) {
	r := newTestRouter(t)
	wallet := validWallet(t)

	save := doJSON(t, r, http.MethodPost, "/api/game-data/"+wallet, models.SaveGameRequest{
		GameData: models.GameDataPayload{HammerPoints: 5},
	})
	require.Equal(t, http.StatusOK, save.Code)

	w := doJSON(t, r, http.MethodGet, "/api/visit-garden/"+wallet, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                       `json:"success"`
		Data    models.VisitGardenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, wallet, resp.Data.OwnerAddress)
	require.Len(t, resp.Data.Plots, models.PlotCount)
}

func TestHistoryEmpty(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/history/"+validWallet(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    []models.HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Empty(t, resp.Data)
}

func TestLeaderboardEmpty(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Empty(t, entries)
}

func TestSeedsCatalog(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/seeds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			ID     string `json:"id"`
			Price  int64  `json:"price"`
			Reward int64  `json:"reward"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data)
	require.Equal(t, "house", resp.Data[0].ID)
}

func TestHarvestRejectsInvalidAddress(t *testing.T) {
	r := newTestRouter(t)
	idx := 0

	// 地址校验在任何链上交互之前，直接 400
	w := doJSON(t, r, http.MethodPost, "/api/harvest", models.HarvestRequest{
		WalletAddress: "Abcd...wxyz",
		PlotIndex:     &idx,
		PlantType:     "house",
		Reward:        1000,
		Blockhash:     validWallet(t),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "InvalidAddress", resp["error"])
}

func TestSellRejectsUnknownSeed(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sell", models.SellRequest{
		WalletAddress: validWallet(t),
		SeedID:        "castle",
		Quantity:      1,
		SellPrice:     100,
		Blockhash:     validWallet(t),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettlementRejectsInvalidAddress(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/leaderboard/update", models.SettlementRequest{
		WalletAddress:        "tooShort",
		HarvestCount:         1,
		TotalReward:          100,
		TransactionSignature: "SIG",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDebugEndpointsRequireLoopback(t *testing.T) {
	r := newTestRouter(t)

	// httptest 默认 RemoteAddr 是 192.0.2.1，不是回环地址
	w := doJSON(t, r, http.MethodGet, "/api/debug/gardens", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReadinessProbe(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ready", resp["status"])
}

func TestRootAndTestEndpoints(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/", "/api/test", "/healthz"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("path %s", path))
	}
}
