package handler

import (
	_ "embed"
	"net/http"
	"os"
	"path/filepath"
)

//go:embed static/index.html
var landingPage []byte

// StaticHandler はランディングページと公開ディレクトリの静的ファイルを配信する。
// publicDirにindex.htmlがあれば埋め込みのページより優先する。
type StaticHandler struct {
	publicDir string
	files     http.Handler
}

// NewStaticHandler はStaticHandlerを生成する。publicDirは存在しなくてもよい。
func NewStaticHandler(publicDir string) *StaticHandler {
	h := &StaticHandler{publicDir: publicDir}
	if publicDir != "" {
		h.files = http.FileServer(http.Dir(publicDir))
	}
	return h
}

// Index はランディングページを返す。
// GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	if h.publicDir != "" {
		path := filepath.Join(h.publicDir, "index.html")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(landingPage)
}

// Files は公開ディレクトリのファイルを返す。公開ディレクトリがない場合は404。
// GET /*
func (h *StaticHandler) Files(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		http.NotFound(w, r)
		return
	}
	if info, err := os.Stat(h.publicDir); err != nil || !info.IsDir() {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
