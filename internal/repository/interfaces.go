// Package repository はイベントログ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"encoding/json"
)

// DayLogRepository はカテゴリ・日付ごとの追記専用ログの永続化インターフェース。
// 1つの(category, day)キーに対して到着順の記録列を保持する。
type DayLogRepository interface {
	// Append は記録を(category, day)ログの末尾に追加する。
	// 同一キーへの並行呼び出しでも記録が失われてはならない。
	Append(ctx context.Context, category, day string, record any) error

	// Read は(category, day)ログの全記録を到着順に返す。
	// ログが存在しない場合はfound=falseを返し、エラーにはしない。
	// categoryとdayは検証せずそのままキーとして使用する。
	Read(ctx context.Context, category, day string) (records []json.RawMessage, found bool, err error)

	// Count は指定カテゴリの全日付にわたる記録数の合計を返す。
	Count(ctx context.Context, category string) (int, error)
}
