package app

import (
	"fmt"
	"io"
)

// Command はsoslogの起動モード。
type Command string

const (
	// CommandServe はSOSイベントAPIと監視ダッシュボードを配信する。
	CommandServe Command = "serve"
	// CommandMigrate はLOG_STORE=postgres用のday_logsスキーマを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のサーバーの /api/status を確認する。
	// distrolessイメージのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandAlert は端末の代わりに位置情報とSOSアラートを送り、緊急連絡先への共有URLを出力する。
	CommandAlert Command = "alert"
	// CommandHelp はサブコマンドの一覧を出力する。
	CommandHelp Command = "help"
)

var commandSummaries = []struct {
	cmd     Command
	summary string
}{
	{CommandServe, "SOSイベントAPIとダッシュボードを起動する（既定）"},
	{CommandMigrate, "day_logsテーブルのマイグレーションを適用する"},
	{CommandHealthcheck, "起動中のサーバーの /api/status を確認する"},
	{CommandAlert, "SOSアラートを送信し、連絡先への共有URLを出力する"},
	{CommandHelp, "この一覧を表示する"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch c := Command(args[0]); c {
	case CommandServe, CommandMigrate, CommandHealthcheck, CommandAlert, CommandHelp:
		return c
	case "-h", "--help":
		return CommandHelp
	default:
		return CommandServe
	}
}

// PrintUsage はサブコマンドの一覧をwに書き出す。
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: soslog [command] [flags]")
	fmt.Fprintln(w)
	for _, c := range commandSummaries {
		fmt.Fprintf(w, "  %-12s %s\n", c.cmd, c.summary)
	}
}
