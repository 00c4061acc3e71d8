package model

import "fmt"

// PersistenceError はファイルシステムやデータベースへの読み書き失敗を表す。
type PersistenceError struct {
	Op   string // read, write, list など
	Path string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CorruptLogError は既存の日次ログの内容が解析できないことを表す。
type CorruptLogError struct {
	Path string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("corrupt day log %s: %v", e.Path, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *CorruptLogError) Unwrap() error {
	return e.Err
}
