// Package share はSOS発信時にメッセージアプリへ位置情報と警告文を渡す処理を提供する。
// 共有手段は順序付きのStrategyとして表現し、最初に成功したもので打ち切る。
package share

import (
	"fmt"
	"strings"
	"time"
)

// DashboardURL はリアルタイム位置を確認できるダッシュボードのURL。
const DashboardURL = "https://s-o-s-prevencion-segura.onrender.com/"

// UpdateInterval は共有中に位置情報を送り直す間隔。
const UpdateInterval = 30 * time.Second

// MapsURL は座標のGoogle Maps URLを返す。
func MapsURL(lat, lon float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", lat, lon)
}

// Message はメッセージアプリに渡すSOS本文を組み立てる。
func Message(description string, lat, lon float64, duration time.Duration, now time.Time) string {
	var b strings.Builder

	b.WriteString("🚨 *ALERTA SOS ACTIVA* 🚨\n\n")
	fmt.Fprintf(&b, "*Descripción:* %s\n\n", description)
	fmt.Fprintf(&b, "📍 *Mi ubicación actual:* %v, %v\n\n", lat, lon)
	fmt.Fprintf(&b, "🔗 *Ver en Google Maps:* %s\n\n", MapsURL(lat, lon))
	b.WriteString("🌐 *VER UBICACIÓN EN TIEMPO REAL:*\n")
	b.WriteString(DashboardURL + "\n\n")
	fmt.Fprintf(&b, "⏰ *Hora:* %s\n\n", now.Format(time.RFC1123))
	b.WriteString("🔄 *UBICACIÓN EN TIEMPO REAL ACTIVADA*\n")
	fmt.Fprintf(&b, "• Se compartirá mi ubicación cada %d segundos\n", int(UpdateInterval.Seconds()))
	fmt.Fprintf(&b, "• Duración: %d minutos\n", int(duration.Minutes()))
	b.WriteString("• La ubicación se actualiza automáticamente\n")
	b.WriteString("• Haz clic en el enlace arriba para ver mi ubicación en vivo\n\n")
	b.WriteString("*Esta alerta fue enviada automáticamente por la app Prevención Segura*")

	return b.String()
}

// NormalizePhone は数字と"+"以外を取り除き、先頭に"+"がなければ付与する。
func NormalizePhone(phone string) string {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)

	if strings.HasPrefix(clean, "+") {
		return clean
	}
	return "+" + clean
}
