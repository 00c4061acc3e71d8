package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hitoshi/soslog/internal/model"
)

// FileDayLogRepo は日次JSONファイルを使用したログリポジトリ。
// ファイル名は <dir>/<category>_<day>.json で、中身は記録のJSON配列。
//
// 追記は「読み込み→末尾追加→一時ファイルへ全体書き出し→rename」で行う。
// 同一キーへの書き込みはキー単位のロックで直列化し、更新の消失を防ぐ。
// 読み込みはロックを取らず、毎回ディスクから再パースする。
type FileDayLogRepo struct {
	dir   string
	locks *keyedMutex
}

// NewFileDayLogRepo はFileDayLogRepoを生成する。
// ディレクトリは最初の書き込み時に作成される。
func NewFileDayLogRepo(dir string) *FileDayLogRepo {
	return &FileDayLogRepo{
		dir:   dir,
		locks: newKeyedMutex(),
	}
}

// Dir はログファイルを格納するディレクトリを返す。
func (r *FileDayLogRepo) Dir() string {
	return r.dir
}

// Path は(category, day)に対応するファイルパスを返す。
func (r *FileDayLogRepo) Path(category, day string) string {
	return filepath.Join(r.dir, category+"_"+day+".json")
}

// Append は記録を日次ファイルの末尾に追加する。
func (r *FileDayLogRepo) Append(ctx context.Context, category, day string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := r.Path(category, day)

	unlock := r.locks.Lock(path)
	defer unlock()

	records, _, err := r.readFile(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return &model.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &model.PersistenceError{Op: "encode", Path: path, Err: err}
	}

	return r.writeFile(path, data)
}

// Read は日次ファイルの全記録を返す。ファイルがない場合はfound=false。
func (r *FileDayLogRepo) Read(ctx context.Context, category, day string) ([]json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return r.readFile(r.Path(category, day))
}

// Count はディレクトリ内の <category>_*.json を全て読み、記録数を合計する。
// ディレクトリが存在しない場合は0を返す。
func (r *FileDayLogRepo) Count(ctx context.Context, category string) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, &model.PersistenceError{Op: "list", Path: r.dir, Err: err}
	}

	prefix := category + "_"
	total := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		records, _, err := r.readFile(filepath.Join(r.dir, name))
		if err != nil {
			return 0, err
		}
		total += len(records)
	}

	return total, nil
}

func (r *FileDayLogRepo) readFile(path string) ([]json.RawMessage, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &model.PersistenceError{Op: "read", Path: path, Err: err}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, &model.CorruptLogError{Path: path, Err: err}
	}
	if records == nil {
		records = []json.RawMessage{}
	}

	return records, true, nil
}

// writeFile は同じディレクトリの一時ファイルに書き出してからrenameで置き換える。
// 一時ファイル名はドット始まりのため Count の走査対象にならない。
func (r *FileDayLogRepo) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return &model.PersistenceError{Op: "mkdir", Path: r.dir, Err: err}
	}

	tmp, err := os.CreateTemp(r.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &model.PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &model.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &model.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &model.PersistenceError{Op: "rename", Path: path, Err: err}
	}

	return nil
}

// keyedMutex はキーごとの排他ロックを提供する。
// 参照カウントが0になったエントリは削除される。
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock はキーのロックを取得し、解放用の関数を返す。
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size は保持しているロックエントリ数を返す。テスト用。
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
