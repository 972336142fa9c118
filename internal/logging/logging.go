package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/blockflow/config"
)

// 环境变量覆盖
const (
	EnvObservabilityEnabled = "BLOCKFLOW_OBSERVABILITY_ENABLED"
	EnvLogLevel             = "BLOCKFLOW_LOG_LEVEL"
	EnvJSONLogPath          = "BLOCKFLOW_JSON_LOG_PATH"
)

var (
	initOnce sync.Once
	global   *zap.Logger
)

// =============================================================================
// 🔧 日志初始化
// =============================================================================

// Init 构建进程级 logger，只在第一次调用时生效，之后返回同一个实例。
// 同时替换 zap 的全局 logger。
func Init(cfg config.LogConfig) *zap.Logger {
	initOnce.Do(func() {
		global = New(cfg)
		zap.ReplaceGlobals(global)
	})
	return global
}

// New 按配置构建 logger，不影响全局状态。
//
// BLOCKFLOW_OBSERVABILITY_ENABLED=false 时返回 nop logger；
// BLOCKFLOW_LOG_LEVEL 覆盖级别；BLOCKFLOW_JSON_LOG_PATH 追加一个 JSON 输出路径。
func New(cfg config.LogConfig) *zap.Logger {
	if v, ok := os.LookupEnv(EnvObservabilityEnabled); ok {
		if enabled, err := strconv.ParseBool(v); err == nil && !enabled {
			return zap.NewNop()
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Level = v
	}
	outputs := append([]string(nil), cfg.OutputPaths...)
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	if p := os.Getenv(EnvJSONLogPath); p != "" {
		outputs = append(outputs, p)
		// 追加的文件路径要求 JSON 编码
		cfg.Format = "json"
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
