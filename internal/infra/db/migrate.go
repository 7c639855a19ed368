package db

import (
	"github.com/pressly/goose/v3"

	"github.com/Spok95/odonto/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrate накатывает встроенные SQL-миграции через goose.
func Migrate(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, ".")
}
