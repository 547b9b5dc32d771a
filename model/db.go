package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"rsiscan/types"
)

// OpenDB 连接 MySQL 并 ping 一次。DSN 需要带 parseTime=true。
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}
	return db, nil
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS rsi_history (
	symbol       VARCHAR(32)   NOT NULL PRIMARY KEY,
	rsi          DECIMAL(6,2)  NOT NULL,
	signal_label VARCHAR(16)   NOT NULL,
	observed_at  DATETIME      NOT NULL
) DEFAULT CHARSET=utf8mb4`

// MySQLMirror 把对账后的历史表整表同步到 rsi_history，CSV 仍是主存储。
type MySQLMirror struct {
	db *sql.DB
}

func NewMySQLMirror(db *sql.DB) *MySQLMirror {
	return &MySQLMirror{db: db}
}

func (m *MySQLMirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("create rsi_history: %w", err)
	}
	return nil
}

// Save 在一个事务里清表再写入，读者看不到半张表。
func (m *MySQLMirror) Save(ctx context.Context, records []types.Record) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rsi_history`); err != nil {
		return fmt.Errorf("clear rsi_history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rsi_history (symbol, rsi, signal_label, observed_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Symbol, r.RSIString(), r.Signal.String(), r.Timestamp.UTC()); err != nil {
			return fmt.Errorf("写入 %s 出错: %w", r.Symbol, err)
		}
	}
	return tx.Commit()
}

// Load 按时间倒序读回镜像表。
func (m *MySQLMirror) Load(ctx context.Context) ([]types.Record, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT symbol, rsi, signal_label, observed_at FROM rsi_history ORDER BY observed_at DESC, symbol`)
	if err != nil {
		return nil, fmt.Errorf("query rsi_history: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		var (
			r     types.Record
			label string
		)
		if err := rows.Scan(&r.Symbol, &r.RSI, &label, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan rsi_history: %w", err)
		}
		if r.Signal, err = types.ParseSignal(label); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQLMirror) Close() error { return m.db.Close() }
