package share

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Request は共有開始の要求。
type Request struct {
	Phones      []string
	Latitude    float64
	Longitude   float64
	Description string
	Duration    time.Duration
}

// Info は進行中の共有の状態。
type Info struct {
	StartTime    time.Time
	Duration     time.Duration
	Phones       []string
	SuccessCount int
	Latitude     float64
	Longitude    float64
}

// Session は1回のSOS共有の状態を保持する。Startで開始し、Stopで破棄する。
type Session struct {
	strategies []Strategy
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active bool
	info   Info
}

// NewSession はSessionを生成する。loggerはnilでもよい。
func NewSession(strategies []Strategy, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		strategies: strategies,
		logger:     logger,
		now:        time.Now,
	}
}

// Start は各連絡先に対して共有手段を試し、1件以上成功すれば共有中の状態にする。
// 戻り値のboolは1件以上成功したかどうか。
func (s *Session) Start(ctx context.Context, req Request) (Info, bool, error) {
	now := s.now()
	payload := Payload{
		Message:   Message(req.Description, req.Latitude, req.Longitude, req.Duration, now),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	phones := make([]string, 0, len(req.Phones))
	success := 0
	for _, raw := range req.Phones {
		if err := ctx.Err(); err != nil {
			return Info{}, false, err
		}
		phone := NormalizePhone(raw)
		phones = append(phones, phone)

		name, err := Share(ctx, Target{Phone: phone}, payload, s.strategies)
		if err != nil {
			s.logger.Warn("位置情報の共有に失敗しました",
				slog.String("phone", phone),
				slog.String("error", err.Error()),
			)
			continue
		}
		success++
		s.logger.Info("位置情報を共有しました",
			slog.String("phone", phone),
			slog.String("strategy", name),
		)
	}

	info := Info{
		StartTime:    now,
		Duration:     req.Duration,
		Phones:       phones,
		SuccessCount: success,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}

	s.mu.Lock()
	s.active = true
	s.info = info
	s.mu.Unlock()

	s.logger.Info("位置情報の共有を開始しました",
		slog.Int("success", success),
		slog.Int("total", len(phones)),
	)

	return info, success > 0, nil
}

// Stop は共有を終了し、状態を破棄する。
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.info = Info{}
	s.logger.Info("位置情報の共有を停止しました")
}

// Active は共有中かどうかを返す。
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Info は現在の共有状態を返す。共有中でなければ空のInfo。
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}
