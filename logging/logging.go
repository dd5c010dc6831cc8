// Package logging 用 zap 构建日志，文件输出经 lumberjack 滚动
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 滚动策略；零值使用默认：10MB 每文件，保留 3 个备份，7 天
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 10
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 3
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
	return o
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
}

// New filePath 为空时写 stderr；level 如 "debug"、"info"
func New(filePath, level string, opts Options) (*zap.SugaredLogger, error) {
	lvl := zapcore.DebugLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	var ws zapcore.WriteSyncer
	if filePath == "" {
		ws = zapcore.Lock(os.Stderr)
	} else {
		opts = opts.withDefaults()
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	// 控制台风格更易读
	encoder := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewCore(encoder, ws, lvl)
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

// Nop 测试与未配置时使用
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }

// OrNop nil 时返回 Nop
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
