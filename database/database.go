package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"kashflo/config"
	"kashflo/logger"
	"kashflo/models"
)

var DB *gorm.DB

// Init 初始化数据库连接并迁移表结构
func Init(cfg *config.Config) error {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return err
	}

	db, err := Open(dialector)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "sqlite" {
		// sqlite 只允许单写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	DB = db
	log.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")
	return nil
}

// Dialector 根据配置选择数据库驱动
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Path + "?_pragma=foreign_keys(1)"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open 使用统一的 gorm 配置打开连接
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(log.Logger),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Migrate 自动迁移所有表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.EmailVerification{},
		&models.Category{},
		&models.Transaction{},
	)
}

// WithSession 在单个连接上执行 fn，任何返回路径都会释放连接
// fn 内的所有查询都必须使用传入的 tx，tx 是新会话，链式条件不会在查询之间累积
func WithSession(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return fn(tx.Session(&gorm.Session{}))
	})
}

// MonthOf 返回按方言提取月份 (1-12) 的 SQL 表达式
func MonthOf(db *gorm.DB, column string) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	case "postgres":
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", column)
	default:
		return fmt.Sprintf("MONTH(%s)", column)
	}
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
