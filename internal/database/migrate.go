package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// DayLogsTable は(category, day)ごとの記録を1行1件で保持するテーブル。
const DayLogsTable = "day_logs"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator は埋め込みのday_logsスキーマを適用するmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load day_logs migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations はday_logsスキーマを最新にし、適用後のスキーマバージョンを返す。
// すでに最新の場合もエラーにしない。途中で中断されたバージョンが残っている場合はエラー。
func RunMigrations(databaseURL string) (uint, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to migrate %s: %w", DayLogsTable, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s schema version: %w", DayLogsTable, err)
	}
	if dirty {
		return version, fmt.Errorf("%s schema version %d is dirty", DayLogsTable, version)
	}
	return version, nil
}
