package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kungfuchess/client"
	"kungfuchess/engine"
	"kungfuchess/logging"
	"kungfuchess/protocol"
)

// 无界面客户端：标准输入逐行输入指令，"e2 e3" 走子，"e2" 原地跳
func main() {
	var (
		serverURL    string
		room         string
		logPath      string
		piecesDir    string
		placementCSV string
		tick         time.Duration
		speed        float64
		jumpMs       int64
		shortRestMs  int64
		longRestMs   int64
	)
	def := engine.DefaultPhysicsConfig()
	flag.StringVar(&serverURL, "server", "ws://localhost:8765/ws", "server websocket URL")
	flag.StringVar(&room, "room", "", "room to join (empty = server default)")
	flag.StringVar(&logPath, "log", "client.log", "log file path (empty = stderr)")
	flag.StringVar(&piecesDir, "pieces", "", "directory with <CODE>/moves.txt tables (empty = built-in)")
	flag.StringVar(&placementCSV, "placement", "", "initial board CSV (empty = built-in)")
	flag.DurationVar(&tick, "tick", 50*time.Millisecond, "local simulation tick period")
	flag.Float64Var(&speed, "speed", def.SpeedCellsPerSec, "move speed in cells per second")
	flag.Int64Var(&jumpMs, "jump-ms", def.JumpMs, "jump duration")
	flag.Int64Var(&shortRestMs, "short-rest-ms", def.ShortRestMs, "rest after a jump")
	flag.Int64Var(&longRestMs, "long-rest-ms", def.LongRestMs, "cooldown after a move")
	flag.Parse()

	log, err := logging.New(logPath, "debug", logging.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := client.DefaultConfig()
	cfg.Physics = engine.PhysicsConfig{SpeedCellsPerSec: speed, JumpMs: jumpMs, ShortRestMs: shortRestMs, LongRestMs: longRestMs}
	if piecesDir != "" {
		cfg.Tables = engine.LoadTables(cfg.Board, piecesDir, engine.AllCodes(), log)
	}
	if placementCSV != "" {
		p, err := engine.LoadPlacement(placementCSV)
		if err != nil {
			log.Fatalf("placement: %v", err)
		}
		cfg.Placement = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := serverURL
	if room != "" {
		u, err := url.Parse(serverURL)
		if err != nil {
			log.Fatalf("server url: %v", err)
		}
		q := u.Query()
		q.Set("room", room)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	conn, err := client.Dial(ctx, target, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", target, err)
		os.Exit(1)
	}
	defer conn.Close()

	game, err := client.NewGame(cfg, conn, log)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	game.OnMessage = func(typ string, payload []byte) {
		switch typ {
		case protocol.TypeMoveExecuted, protocol.TypeFullState:
			printBoard(cfg.Board, game.View())
		case protocol.TypeMoveError, protocol.TypeGameOver, protocol.TypeInfo,
			protocol.TypeError, protocol.TypePlayerDisconnected, protocol.TypeGameStarted, protocol.TypeAssignColor:
			fmt.Println(string(payload))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer cancel()
		if err := conn.ReadLoop(ctx, game.Deliver); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
		}
	}()
	go readStdin(ctx, cfg.Board, game)

	game.Run(ctx, tick)
}

// readStdin 只负责入队，不修改棋子状态
func readStdin(ctx context.Context, b engine.Board, game *client.Game) {
	start := time.Now()
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "state" {
			if err := game.RequestState(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		cmd, err := client.ParseLine(b, line, time.Since(start).Milliseconds())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := game.Submit(cmd); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func printBoard(b engine.Board, view map[string]string) {
	var sb strings.Builder
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			code, ok := view[b.CellToAlgebraic(engine.Cell{Row: r, Col: c})]
			if !ok {
				code = ".."
			}
			sb.WriteString(code)
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, " %d\n", b.Rows-r)
	}
	for c := 0; c < b.Cols; c++ {
		fmt.Fprintf(&sb, "%c  ", 'a'+rune(c))
	}
	fmt.Println(sb.String())
}
