package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kungfuchess/engine"
	"kungfuchess/server"
	"kungfuchess/store"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultAddr() string {
	if v := os.Getenv("KFCHESS_ADDR"); v != "" {
		return v
	}
	for _, key := range []string{"KFCHESS_PORT", "PORT"} {
		if v := os.Getenv(key); v != "" {
			return ":" + v
		}
	}
	return ":8765"
}

// KungFu Chess 权威服务端入口：HTTP + WebSocket，按房间管理对局
func main() {
	var (
		addr         string
		logPath      string
		logLevel     string
		dbPath       string
		piecesDir    string
		placementCSV string
		onDisconnect string
	)
	flag.StringVar(&addr, "addr", defaultAddr(), "server listen address, e.g. :8765")
	flag.StringVar(&logPath, "log", "server.log", "log file path (empty = stderr)")
	flag.StringVar(&logLevel, "log-level", "debug", "log level: debug|info|warn|error")
	flag.StringVar(&dbPath, "db", envOr("KFCHESS_DB", ""), "SQLite file for match history (empty = disabled)")
	flag.StringVar(&piecesDir, "pieces", "", "directory with <CODE>/moves.txt tables (empty = built-in)")
	flag.StringVar(&placementCSV, "placement", "", "initial board CSV (empty = built-in)")
	flag.StringVar(&onDisconnect, "on-disconnect", "continue", "when a player drops: continue|pause|end")
	flag.Parse()

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(logPath, logLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	opts := server.DefaultOptions()
	if piecesDir != "" {
		opts.Tables = engine.LoadTables(opts.Board, piecesDir, engine.AllCodes(), server.Log)
	}
	if placementCSV != "" {
		p, err := engine.LoadPlacement(placementCSV)
		if err != nil {
			server.Log.Fatalf("placement: %v", err)
		}
		opts.Placement = p
	}
	policy, err := server.ParseDisconnectPolicy(onDisconnect)
	if err != nil {
		server.Log.Fatalf("%v", err)
	}
	opts.Config.OnDisconnect = policy

	if dbPath != "" {
		s, err := store.New(dbPath)
		if err != nil {
			server.Log.Fatalf("open store %s: %v", dbPath, err)
		}
		defer s.Close()
		opts.Sink = s
		server.Log.Infof("persisting matches to %s", dbPath)
	}

	rm := server.NewRoomManager(opts)
	// 先预创建一个默认房间，便于快速试跑
	if _, err := rm.GetOrCreateRoom(server.DefaultRoom); err != nil {
		server.Log.Fatalf("%v", err)
	}

	srv := &http.Server{Addr: addr, Handler: server.Routes(rm)}

	go func() {
		server.Log.Infof("KungFu Chess listening on %s; ws://localhost%v/ws", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rm.Close()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
}
