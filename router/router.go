package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"kashflo/agent"
	"kashflo/api"
	"kashflo/config"
	"kashflo/docs"
	"kashflo/middleware"
	"kashflo/report"
	"kashflo/service"
)

const (
	loginMaxAttempts = 5
	loginWindow      = time.Minute
)

// Version 构建时注入
var Version = "dev"

// Deps 路由依赖，nil 字段按配置创建
type Deps struct {
	Mailer     service.Mailer
	Supervisor api.Supervisor
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	return New(cfg, db, Deps{})
}

// New 按依赖创建路由
func New(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if deps.Mailer == nil {
		deps.Mailer = service.NewEmailService(&cfg.Email)
	}
	if deps.Supervisor == nil {
		deps.Supervisor = newSupervisor(cfg.Agent, db)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	_ = r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.WarnLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithSkipPath([]string{"/health", "/metrics"}),
		logger.WithLogger(func(c *gin.Context, _ zerolog.Logger) zerolog.Logger {
			return log.Logger.With().
				Str("request-id", requestid.Get(c)).
				Logger()
		})))
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))
	r.Use(Metrics())

	if cfg.Server.Pprof {
		pprof.Register(r)
	}

	docs.SwaggerInfo.Version = Version
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	authHandler := api.NewAuthHandler(db, deps.Mailer)
	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.Login)
		auth.POST("/refresh-token", authHandler.RefreshToken)
	}

	authorized := r.Group("")
	authorized.Use(middleware.JWTAuth())
	{
		me := authorized.Group("/auth")
		{
			me.POST("/logout", authHandler.Logout)
			me.GET("/me", authHandler.Me)
			me.DELETE("/me", authHandler.DeleteMe)
			me.POST("/send-code", authHandler.SendCode)
			me.POST("/verify-code", authHandler.VerifyCode)
		}

		categoryHandler := api.NewCategoryHandler(db)
		categories := authorized.Group("/categories")
		{
			categories.POST("", categoryHandler.Create)
			categories.GET("", categoryHandler.List)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Delete)
		}

		transactionHandler := api.NewTransactionHandler(db)
		exportHandler := api.NewExportHandler(db)
		transactions := authorized.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/export", exportHandler.ExportCSV)
			transactions.PUT("/:id", transactionHandler.Update)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}

		reportHandler := api.NewReportHandler(db)
		reports := authorized.Group("/report")
		{
			reports.GET("/category/year", reportHandler.YearWiseCategory)
			reports.GET("/category/year/export", reportHandler.ExportYearWiseCategory)
			reports.GET("/summary", reportHandler.Summary)
		}

		agentHandler := api.NewAgentHandler(deps.Supervisor)
		authorized.POST("/agents", agentHandler.Query)
	}

	return r
}

// newSupervisor 未配置 api_key 时返回 nil，接口回复 503
func newSupervisor(cfg config.AgentConfig, db *gorm.DB) api.Supervisor {
	client, err := agent.NewClient(cfg)
	if errors.Is(err, agent.ErrNotConfigured) {
		log.Warn().Msg("agent.api_key is empty, /agents is disabled")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("could not create agent client")
		return nil
	}

	tools := agent.NewToolset(report.New(db), service.NewCategoryService(db), service.NewTransactionService(db))
	return agent.New(client, agent.OptionsFromConfig(cfg), tools)
}

// corsMiddleware 未配置来源时允许任意来源
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
