package server

import (
	"go.uber.org/zap"

	"kungfuchess/logging"
)

// Log 是全局可用的 SugaredLogger，未初始化时丢弃输出
var Log *zap.SugaredLogger = logging.Nop()

// InitLogger 初始化 zap 日志到本地文件（支持滚动）
// filePath: 日志文件路径，如 "server.log"；为空时写 stderr
func InitLogger(filePath, level string) error {
	l, err := logging.New(filePath, level, logging.Options{})
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
