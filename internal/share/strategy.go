package share

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnavailable は共有手段が使えない（アプリ未インストール等）ことを示す。
	ErrUnavailable = errors.New("share: strategy unavailable")
	// ErrAllStrategiesFailed はすべての共有手段が失敗したことを示す。
	ErrAllStrategiesFailed = errors.New("share: all strategies failed")
)

// メッセージアプリの識別子とIntentのアクション。
const (
	WhatsAppPackage = "com.whatsapp"
	ActionSend      = "android.intent.action.SEND"
	ActionView      = "android.intent.action.VIEW"
)

// Target は共有先の連絡先。Phoneは正規化済みであること。
type Target struct {
	Phone string
}

// Payload は共有する内容。
type Payload struct {
	Message   string
	Latitude  float64
	Longitude float64
}

// Intent はプラットフォームに渡す共有要求。
type Intent struct {
	Action  string
	Type    string
	Package string
	Data    string
	Extras  map[string]string
}

// Dispatcher はIntentをプラットフォームに渡す。
// 受け付けられない場合はErrUnavailableを返す。
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) error
}

// Strategy は共有手段の1つ。
type Strategy struct {
	Name string
	Run  func(ctx context.Context, target Target, payload Payload) error
}

// Share はstrategiesを順に1回ずつ試し、最初に成功した手段の名前を返す。
// 再試行やバックオフは行わない。すべて失敗した場合はErrAllStrategiesFailedを返す。
func Share(ctx context.Context, target Target, payload Payload, strategies []Strategy) (string, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.Run(ctx, target, payload)
		if err == nil {
			return s.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return "", fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(errs...))
}

// DefaultStrategies は位置共有Intent、位置テキスト付き共有Intent、チャットURLの順の手段を返す。
func DefaultStrategies(d Dispatcher) []Strategy {
	return []Strategy{
		NativeLocationStrategy(d),
		LocationTextStrategy(d),
		DirectURLStrategy(d),
	}
}

// NativeLocationStrategy は位置情報をextraとして添付した共有Intentを送る。
func NativeLocationStrategy(d Dispatcher) Strategy {
	return Strategy{
		Name: "native_location",
		Run: func(ctx context.Context, target Target, payload Payload) error {
			return d.Dispatch(ctx, Intent{
				Action:  ActionSend,
				Type:    "text/plain",
				Package: WhatsAppPackage,
				Data:    chatURL(target.Phone),
				Extras: map[string]string{
					"android.intent.extra.LOCATION": fmt.Sprintf("geo:%v,%v", payload.Latitude, payload.Longitude),
					"android.intent.extra.TEXT":     payload.Message,
					"android.intent.extra.SUBJECT":  "🚨 ALERTA SOS - Ubicación en Tiempo Real",
				},
			})
		},
	}
}

// LocationTextStrategy は本文の末尾に地図リンクを付けた共有Intentを送る。
func LocationTextStrategy(d Dispatcher) Strategy {
	return Strategy{
		Name: "location_text",
		Run: func(ctx context.Context, target Target, payload Payload) error {
			text := payload.Message + "\n\n📍 Ubicación: " + MapsURL(payload.Latitude, payload.Longitude)
			return d.Dispatch(ctx, Intent{
				Action:  ActionSend,
				Type:    "text/plain",
				Package: WhatsAppPackage,
				Data:    chatURL(target.Phone),
				Extras: map[string]string{
					"android.intent.extra.TEXT":    text,
					"android.intent.extra.SUBJECT": "Ubicación en Tiempo Real",
				},
			})
		},
	}
}

// DirectURLStrategy は本文をクエリに埋め込んだチャットURLを開く。
func DirectURLStrategy(d Dispatcher) Strategy {
	return Strategy{
		Name: "direct_url",
		Run: func(ctx context.Context, target Target, payload Payload) error {
			return d.Dispatch(ctx, Intent{
				Action:  ActionView,
				Package: WhatsAppPackage,
				Data:    DirectChatURL(target.Phone, payload.Message),
			})
		},
	}
}

// DirectChatURL は本文付きのチャットURLを返す。空白は"+"ではなく%20で表す。
func DirectChatURL(phone, message string) string {
	return chatURL(phone) + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func chatURL(phone string) string {
	return "https://wa.me/" + phone
}
