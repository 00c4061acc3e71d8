package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/soslog/internal/repository"
)

func rawItems(t *testing.T, items ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

// 振り分けが無効の場合は受信確認のみで何も永続化しない
func TestRecordBatch_AcknowledgeOnly(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	items := rawItems(t,
		`{"type":"emergency","message":"a"}`,
		`{"type":"location","latitude":1}`,
		`42`,
	)
	receipt, err := env.svc.RecordBatch(ctx, items)
	if err != nil {
		t.Fatalf("RecordBatch error: %v", err)
	}

	if receipt.Received != 3 {
		t.Errorf("Received = %d, want 3", receipt.Received)
	}
	if receipt.Dispatched != 0 || receipt.Skipped != 0 {
		t.Errorf("Dispatched/Skipped = %d/%d, want 0/0", receipt.Dispatched, receipt.Skipped)
	}
	if receipt.Timestamp != "2024-01-01T10:00:00.000Z" {
		t.Errorf("Timestamp = %q", receipt.Timestamp)
	}
	if env.collector.batchItems != 3 {
		t.Errorf("batch metric = %d, want 3", env.collector.batchItems)
	}

	for _, cat := range []string{"emergency", "location"} {
		page, _ := env.svc.Logs(ctx, cat, "2024-01-01")
		if page.Found {
			t.Errorf("%s log should not exist in acknowledge-only mode", cat)
		}
	}
}

func TestRecordBatch_Empty(t *testing.T) {
	env := newTestEnv(t, true)

	receipt, err := env.svc.RecordBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("RecordBatch error: %v", err)
	}
	if receipt.Received != 0 {
		t.Errorf("Received = %d, want 0", receipt.Received)
	}
}

func TestRecordBatch_Dispatch(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	items := rawItems(t,
		`{"type":"emergency","userId":"u1","message":"Robo: batch"}`,
		`{"type":"location_update","latitude":4.7,"longitude":-74.0}`,
		`{"type":"location","latitude":4.8,"longitude":-74.1}`,
		`{"type":"education_progress","lessonName":"L1","score":9}`,
		`{"type":"evidence","fileType":"audio","fileName":"rec.mp3"}`,
		`{"type":"unknown"}`,
		`"not an object"`,
	)
	receipt, err := env.svc.RecordBatch(ctx, items)
	if err != nil {
		t.Fatalf("RecordBatch error: %v", err)
	}

	if receipt.Received != 7 {
		t.Errorf("Received = %d, want 7", receipt.Received)
	}
	if receipt.Dispatched != 5 {
		t.Errorf("Dispatched = %d, want 5", receipt.Dispatched)
	}
	if receipt.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", receipt.Skipped)
	}

	wantCounts := map[string]int{"emergency": 1, "location": 2, "education": 1, "evidence": 1}
	for cat, want := range wantCounts {
		page, err := env.svc.Logs(ctx, cat, "2024-01-01")
		if err != nil {
			t.Fatalf("Logs(%s) error: %v", cat, err)
		}
		if page.Count != want {
			t.Errorf("%s count = %d, want %d", cat, page.Count, want)
		}
	}

	// 振り分けられたアラートは状態にも反映される
	status, err := env.svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if !status.IsActive || status.Alert.ThreatType != "Robo" {
		t.Errorf("status = %+v, want active Robo alert", status)
	}
}

// 途中で失敗した場合、それ以前の要素は記録済みのままエラーになる
func TestRecordBatch_DispatchFailureKeepsEarlierItems(t *testing.T) {
	root := t.TempDir()
	files := repository.NewFileDayLogRepo(root)
	calls := 0
	repo := &mockDayLogRepo{
		appendFn: func(ctx context.Context, category, day string, record any) error {
			calls++
			if calls == 2 {
				return errors.New("disk full")
			}
			return files.Append(ctx, category, day, record)
		},
		readFn:  files.Read,
		countFn: files.Count,
	}
	clock := newFakeClock(testStart)
	svc := NewService(repo, nil, nil, discardLogger(), Config{Location: time.UTC, BatchDispatch: true, Now: clock.Now})

	items := rawItems(t,
		`{"type":"emergency","message":"first"}`,
		`{"type":"emergency","message":"second"}`,
		`{"type":"emergency","message":"third"}`,
	)
	_, err := svc.RecordBatch(context.Background(), items)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want to carry cause", err)
	}

	page, _ := svc.Logs(context.Background(), "emergency", "2024-01-01")
	if page.Count != 1 {
		t.Errorf("Count = %d, want 1 (only the item before the failure)", page.Count)
	}
}

func TestItemType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"type":"emergency"}`, "emergency"},
		{`{"type":5}`, ""},
		{`{}`, ""},
		{`null`, ""},
		{`[1,2]`, ""},
		{`"emergency"`, ""},
	}

	for _, tt := range tests {
		if got := itemType(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("itemType(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
