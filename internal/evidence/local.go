package evidence

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore はローカルディスクのディレクトリに保存するStore。
type LocalStore struct {
	dir string
}

// NewLocalStore はLocalStoreを生成する。ディレクトリは保存時に作成される。
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Save はdir/nameにファイルを書き込む。
// 書き込みに失敗した場合は中途半端なファイルを削除する。
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("証拠ディレクトリの作成に失敗: %w", err)
	}

	name = baseName(name)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("証拠ファイルの作成に失敗: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return StoredFile{}, fmt.Errorf("証拠ファイルの書き込みに失敗: %w", err)
	}

	return StoredFile{Name: name, Path: path, Size: n}, nil
}
