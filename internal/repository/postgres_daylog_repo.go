package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hitoshi/soslog/internal/model"
)

// PostgresDayLogRepo はPostgreSQLのday_logsテーブルを使用したログリポジトリ。
// 追記は1行のINSERTのみで、読み込みを伴わない真の追記専用ログになる。
type PostgresDayLogRepo struct {
	db *sql.DB
}

// NewPostgresDayLogRepo はPostgresDayLogRepoを生成する。
func NewPostgresDayLogRepo(db *sql.DB) *PostgresDayLogRepo {
	return &PostgresDayLogRepo{db: db}
}

// Append は記録をday_logsに1行追加する。
func (r *PostgresDayLogRepo) Append(ctx context.Context, category, day string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return &model.PersistenceError{Op: "encode", Path: "day_logs", Err: err}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO day_logs (category, day, payload) VALUES ($1, $2, $3::jsonb)`,
		category, day, string(payload),
	)
	if err != nil {
		return &model.PersistenceError{Op: "insert", Path: "day_logs", Err: err}
	}

	return nil
}

// Read は(category, day)の記録をid昇順（到着順）で返す。
// 1行もない場合はfound=false。
func (r *PostgresDayLogRepo) Read(ctx context.Context, category, day string) ([]json.RawMessage, bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM day_logs WHERE category = $1 AND day = $2 ORDER BY id`,
		category, day,
	)
	if err != nil {
		return nil, false, &model.PersistenceError{Op: "select", Path: "day_logs", Err: err}
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, false, &model.PersistenceError{Op: "scan", Path: "day_logs", Err: err}
		}
		records = append(records, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, false, &model.PersistenceError{Op: "select", Path: "day_logs", Err: err}
	}

	if len(records) == 0 {
		return nil, false, nil
	}
	return records, true, nil
}

// Count は指定カテゴリの全記録数を返す。
func (r *PostgresDayLogRepo) Count(ctx context.Context, category string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM day_logs WHERE category = $1`,
		category,
	).Scan(&n)
	if err != nil {
		return 0, &model.PersistenceError{Op: "count", Path: "day_logs", Err: err}
	}
	return n, nil
}
