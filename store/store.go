// Package store 用 SQLite 持久化对局、走子与吃子记录
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound 查询无结果
var ErrNotFound = errors.New("not found")

// Match 一局对局
type Match struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// MoveRecord 一步棋
type MoveRecord struct {
	ID        int64  `json:"id"`
	MatchID   string `json:"match_id"`
	PieceID   string `json:"piece_id"`
	PieceType string `json:"piece_type"`
	From      string `json:"from"`
	To        string `json:"to"`
	Player    string `json:"player"`
	Promoted  bool   `json:"promoted"`
	Timestamp int64  `json:"timestamp"`
}

// CaptureRecord 一次吃子
type CaptureRecord struct {
	ID         int64  `json:"id"`
	MatchID    string `json:"match_id"`
	CapturedID string `json:"captured_id"`
	Captured   string `json:"captured"`
	ByID       string `json:"by_id"`
	By         string `json:"by"`
	Position   string `json:"position"`
	Timestamp  int64  `json:"timestamp"`
}

// Store WAL 模式，允许 HTTP 读与对局写并发
type Store struct {
	db *sql.DB
}

// New 打开（或创建）数据库并建表
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id         TEXT PRIMARY KEY,
		room       TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at   TEXT,
		winner     TEXT,
		reason     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_matches_room ON matches(room, started_at);

	CREATE TABLE IF NOT EXISTS moves (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id   TEXT NOT NULL REFERENCES matches(id),
		piece_id   TEXT NOT NULL,
		piece_type TEXT NOT NULL,
		from_sq    TEXT NOT NULL,
		to_sq      TEXT NOT NULL,
		player     TEXT NOT NULL,
		promoted   INTEGER NOT NULL DEFAULT 0,
		ts         INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_moves_match ON moves(match_id, id);

	CREATE TABLE IF NOT EXISTS captures (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id    TEXT NOT NULL REFERENCES matches(id),
		captured_id TEXT NOT NULL,
		captured    TEXT NOT NULL,
		by_id       TEXT NOT NULL,
		by_code     TEXT NOT NULL,
		position    TEXT NOT NULL,
		ts          INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_captures_match ON captures(match_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Matches
// ---------------------------------------------------------------------------

// CreateMatch 记录新对局；重复 id 报错
func (s *Store) CreateMatch(id, room string, startedAt time.Time) error {
	return retryOnContention(func() error {
		_, err := s.db.Exec(
			`INSERT INTO matches (id, room, started_at) VALUES (?, ?, ?)`,
			id, room, startedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

// EndMatch 写入结束时间与结果
func (s *Store) EndMatch(id, winner, reason string, endedAt time.Time) error {
	return retryOnContention(func() error {
		res, err := s.db.Exec(
			`UPDATE matches SET ended_at = ?, winner = ?, reason = ? WHERE id = ?`,
			endedAt.UTC().Format(time.RFC3339Nano), winner, reason, id,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("match %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// GetMatch 按 id 查询
func (s *Store) GetMatch(id string) (*Match, error) {
	row := s.db.QueryRow(
		`SELECT id, room, started_at, ended_at, winner, reason FROM matches WHERE id = ?`, id,
	)
	return scanMatch(row)
}

// LatestMatch 某房间最近开始的对局
func (s *Store) LatestMatch(room string) (*Match, error) {
	row := s.db.QueryRow(
		`SELECT id, room, started_at, ended_at, winner, reason FROM matches
		 WHERE room = ? ORDER BY started_at DESC LIMIT 1`, room,
	)
	return scanMatch(row)
}

func scanMatch(row *sql.Row) (*Match, error) {
	var m Match
	var started string
	var ended, winner, reason sql.NullString
	if err := row.Scan(&m.ID, &m.Room, &started, &ended, &winner, &reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	m.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at for match %s: %w", m.ID, err)
	}
	if ended.Valid {
		m.EndedAt, err = time.Parse(time.RFC3339Nano, ended.String)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at for match %s: %w", m.ID, err)
		}
	}
	m.Winner = winner.String
	m.Reason = reason.String
	return &m, nil
}

// ---------------------------------------------------------------------------
// Moves & captures
// ---------------------------------------------------------------------------

// InsertMove 追加走子，返回行 id
func (s *Store) InsertMove(m MoveRecord) (int64, error) {
	var id int64
	err := retryOnContention(func() error {
		res, err := s.db.Exec(
			`INSERT INTO moves (match_id, piece_id, piece_type, from_sq, to_sq, player, promoted, ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.MatchID, m.PieceID, m.PieceType, m.From, m.To, m.Player, boolToInt(m.Promoted), m.Timestamp,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// ListMoves 按执行顺序；limit<=0 表示全部
func (s *Store) ListMoves(matchID string, limit int) ([]MoveRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, match_id, piece_id, piece_type, from_sq, to_sq, player, promoted, ts
		 FROM moves WHERE match_id = ? ORDER BY id LIMIT ?`, matchID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoveRecord
	for rows.Next() {
		var m MoveRecord
		var promoted int
		if err := rows.Scan(&m.ID, &m.MatchID, &m.PieceID, &m.PieceType, &m.From, &m.To, &m.Player, &promoted, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Promoted = promoted != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertCapture 追加吃子，返回行 id
func (s *Store) InsertCapture(c CaptureRecord) (int64, error) {
	var id int64
	err := retryOnContention(func() error {
		res, err := s.db.Exec(
			`INSERT INTO captures (match_id, captured_id, captured, by_id, by_code, position, ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.MatchID, c.CapturedID, c.Captured, c.ByID, c.By, c.Position, c.Timestamp,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// ListCaptures 按发生顺序
func (s *Store) ListCaptures(matchID string) ([]CaptureRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, match_id, captured_id, captured, by_id, by_code, position, ts
		 FROM captures WHERE match_id = ? ORDER BY id`, matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CaptureRecord
	for rows.Next() {
		var c CaptureRecord
		if err := rows.Scan(&c.ID, &c.MatchID, &c.CapturedID, &c.Captured, &c.ByID, &c.By, &c.Position, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountMoves 某局的走子数
func (s *Store) CountMoves(matchID string) int64 {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM moves WHERE match_id = ?`, matchID).Scan(&n); err != nil {
		return 0
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
