package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はポータルゲートウェイを起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandCleanup は期限切れセッションの削除を1回実行することを示す。
	CommandCleanup Command = "cleanup"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandCLI は引数をCLIに渡すことを示す。
	CommandCLI Command = "cli"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// サーバー用のサブコマンド以外はすべてCLIとして扱う。引数が空の場合はCLIのヘルプになる。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandCLI
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "cleanup":
		return CommandCleanup
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandCLI
	}
}

// MigrateAction はmigrateサブコマンドの操作を表す。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// ParseMigrateAction はmigrateに続く引数から操作を解析する。省略時はup。
func ParseMigrateAction(args []string) (MigrateAction, bool) {
	if len(args) < 2 {
		return MigrateUp, true
	}
	switch a := MigrateAction(args[1]); a {
	case MigrateUp, MigrateDown, MigrateVersion:
		return a, true
	default:
		return "", false
	}
}
