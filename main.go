package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/BUILDPROJECT222/ConstructSol/internal/db"
	"github.com/BUILDPROJECT222/ConstructSol/internal/handler"
	"github.com/BUILDPROJECT222/ConstructSol/internal/middleware"
	"github.com/BUILDPROJECT222/ConstructSol/internal/services"
	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

type Config struct {
	MySQL struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		DBName   string `mapstructure:"dbname"`
	} `mapstructure:"mysql"`
	Solana struct {
		RPCURL        string `mapstructure:"rpc_url"`
		StoreSecret   string `mapstructure:"store_secret"`   // 托管钱包私钥（base58）
		TokenMint     string `mapstructure:"token_mint"`     // 游戏代币 mint 地址
		TokenDecimals int    `mapstructure:"token_decimals"` // 代币精度，构造与校验共用
	} `mapstructure:"solana"`
	App struct {
		Port               int     `mapstructure:"port"`
		Debug              bool    `mapstructure:"debug"`
		CORSOrigin         string  `mapstructure:"cors_origin"`
		RateLimitPerMinute float64 `mapstructure:"rate_limit_per_minute"`
		RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
	} `mapstructure:"app"`
}

func main() {
	// 读取配置
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("读取配置失败:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatal("解析配置失败:", err)
	}

	handler.Debug = cfg.App.Debug
	utils.DefaultLogger.SetDebug(cfg.App.Debug)

	// 连接 MySQL 并初始化 DB
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.DBName)
	dbConn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		// 让驱动错误翻译成 gorm.ErrDuplicatedKey 之类的统一错误，
		// 结算的重复签名判断依赖这个
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("MySQL 连接失败:", err)
	}

	// 运行表结构迁移（创建新表或更新表结构）
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("表迁移失败:", err)
	}
	db.DB = dbConn
	log.Println("数据库初始化完成")

	// 旧缩写地址记录在首次以完整地址加载时迁移；这里只统计提醒
	if count, err := db.CountLegacyAddresses(dbConn); err == nil && count > 0 {
		log.Printf("警告: 还有 %d 条旧缩写地址记录未迁移", count)
	}

	// 初始化 Solana：RPC 客户端、托管钱包、代币参数（进程级，只加载一次）
	if err := services.InitSolana(); err != nil {
		log.Fatal("Solana 初始化失败:", err)
	}
	log.Printf("托管钱包: %s, 代币: %s (精度 %d)",
		services.CustodianAddress(), services.TokenMint.String(), services.TokenDecimals())

	// 初始化 Gin
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS：前端跑在另一个域名下
	corsCfg := cors.DefaultConfig()
	if cfg.App.CORSOrigin == "" || cfg.App.CORSOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.App.CORSOrigin}
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	// 按客户端限流
	perMinute := cfg.App.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 1000.0 / 15.0 // 默认与旧版一致：15 分钟 1000 次
	}
	burst := cfg.App.RateLimitBurst
	if burst <= 0 {
		burst = 30
	}
	r.Use(middleware.NewRateLimiter(perMinute, burst).Middleware())

	handler.InitStartTime()
	handler.RegisterRoutes(r)

	// 启动服务器
	port := fmt.Sprintf(":%d", cfg.App.Port)
	log.Printf("服务器启动于端口 %s", port)
	if err := r.Run(port); err != nil {
		log.Fatal("Gin 服务器启动失败:", err)
	}
}
