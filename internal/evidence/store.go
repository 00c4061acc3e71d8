// Package evidence はアップロードされた証拠ファイル本体の保存先を提供する。
// メタデータ（EvidenceRecord）はイベントログ側が所有し、ここではバイト列のみを扱う。
package evidence

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// nameTimeLayout は保存ファイル名の接頭辞に使う時刻書式（YYYY-MM-DD_HH-mm-ss）。
const nameTimeLayout = "2006-01-02_15-04-05"

// StoredFile は保存済みファイルの情報。
type StoredFile struct {
	Name string // 保存名
	Path string // 保存先パス（ストアごとの表現）
	Size int64  // 書き込んだバイト数
}

// Store は証拠ファイルの保存先のインターフェース。
type Store interface {
	// Save はrの内容をnameで保存する。
	Save(ctx context.Context, name string, r io.Reader) (StoredFile, error)
}

// FileName は保存ファイル名 <YYYY-MM-DD_HH-mm-ss>_<original> を返す。
// originalのディレクトリ部分は取り除く。
func FileName(now time.Time, original string) string {
	return now.Format(nameTimeLayout) + "_" + baseName(original)
}

// baseName はクライアント由来のファイル名からパス区切りを取り除く。
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "file"
	}
	return base
}
