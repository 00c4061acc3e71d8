// Package database はLOG_STORE=postgres時に日次ログを置くPostgreSQLへの接続と、
// day_logsテーブルのマイグレーションを扱う。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxIdleTime = 5 * time.Minute
)

// Open はday_logs用のPostgreSQL接続プールを開く。
// この時点では接続を試行しない。疎通確認まで行う場合はConnectを使う。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	return db, nil
}

// Connect は接続プールを開いて疎通を確認し、day_logsのスキーマを最新にする。
// 途中で失敗した場合はプールを閉じてからエラーを返す。
func Connect(ctx context.Context, databaseURL string) (*sql.DB, uint, error) {
	db, err := Open(databaseURL)
	if err != nil {
		return nil, 0, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, 0, fmt.Errorf("failed to connect to database: %w", err)
	}
	version, err := RunMigrations(databaseURL)
	if err != nil {
		db.Close()
		return nil, 0, err
	}
	return db, version, nil
}
