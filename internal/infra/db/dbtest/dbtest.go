// Package dbtest поднимает изолированную схему Postgres для тестов репозиториев.
package dbtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/odonto/internal/infra/db"
)

// EnvDSN без неё тесты с базой пропускаются.
const EnvDSN = "APP_TEST_POSTGRES_DSN"

// Open создаёт пустую схему с миграциями и возвращает пул, у которого она в search_path.
// Схема удаляется по завершении теста. Пакеты go test идут параллельно, поэтому
// каждый передаёт своё имя схемы.
func Open(t *testing.T, schema string) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv(EnvDSN))
	if dsn == "" {
		t.Skip("set " + EnvDSN + " to run postgres tests")
	}
	ctx := context.Background()

	admin, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	ident := fmt.Sprintf("%q", "odonto_test_"+schema)
	for _, stmt := range []string{"DROP SCHEMA IF EXISTS " + ident + " CASCADE", "CREATE SCHEMA " + ident} {
		if _, err := admin.Exec(ctx, stmt); err != nil {
			admin.Close()
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+ident+" CASCADE")
		admin.Close()
	})

	scoped, err := withSearchPath(dsn, "odonto_test_"+schema)
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if err := db.Migrate(scoped); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.Connect(ctx, scoped)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// withSearchPath принимает и URL, и key=value форму DSN.
func withSearchPath(dsn, schema string) (string, error) {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Count число строк по произвольному запросу вида SELECT count(*) ...
func Count(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), sql, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
