package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kashflo/config"
)

// Setup 初始化全局 zerolog 日志
// format 为 console 时输出可读格式，否则输出 JSON
func Setup(cfg config.LogConfig) {
	Configure(os.Stdout, cfg)
}

// Configure 同 Setup，可指定输出
func Configure(out io.Writer, cfg config.LogConfig) {
	output := out
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: out}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
