package share

import (
	"context"
	"fmt"
	"io"
)

// WriterDispatcher はURLを開くIntentだけを受け付け、そのURLをwに書き出す。
// 端末上のCLIのようにアプリへ直接Intentを渡せない環境で使う。
type WriterDispatcher struct {
	w io.Writer
}

// NewWriterDispatcher はWriterDispatcherを生成する。
func NewWriterDispatcher(w io.Writer) *WriterDispatcher {
	return &WriterDispatcher{w: w}
}

// Dispatch はACTION_VIEWのIntentのURLを書き出す。それ以外はErrUnavailable。
func (d *WriterDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	if intent.Action != ActionView || intent.Data == "" {
		return ErrUnavailable
	}
	if _, err := fmt.Fprintln(d.w, intent.Data); err != nil {
		return fmt.Errorf("URLの出力に失敗しました: %w", err)
	}
	return nil
}
