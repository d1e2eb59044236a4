package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kashflo/config"
	"kashflo/database"
	"kashflo/logger"
	"kashflo/middleware"
	"kashflo/router"
)

//go:generate swag init -g main.go -o docs

// @title Kashflo API
// @version 1.0
// @description 个人记账后端：类别、交易、年度报表与智能助手
// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8000 或 :8000")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("kashflo", router.Version)
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// 未指定日志格式时，debug 模式输出可读格式
	if cfg.Log.Format == "" && cfg.Server.Mode == gin.DebugMode {
		cfg.Log.Format = "console"
	}
	logger.Setup(cfg.Log)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Info().Str("port", port).Msg("port overridden by flag")
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		log.Fatal().Err(err).Msg("init database")
	}

	middleware.InitJWT(cfg)

	r := router.SetupRouter(cfg, database.GetDB())

	log.Info().
		Str("addr", cfg.Server.Port).
		Str("swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port)).
		Msg("kashflo started")

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
