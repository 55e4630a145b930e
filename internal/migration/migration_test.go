package migration

import (
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCreatesSchemaIdempotently(t *testing.T) {
	conn := db.NewTest(t)

	require.NoError(t, Apply(conn))
	require.NoError(t, Apply(conn))

	for _, table := range []string{"brands", "products", "clients", "orders", "order_lines", "audit_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestOrderLinesCascadeWithOrder(t *testing.T) {
	conn := db.NewTest(t)
	require.NoError(t, Apply(conn))

	now := "2026-01-01 00:00:00"
	require.NoError(t, conn.Exec(`INSERT INTO brands (id, name, created_at, updated_at) VALUES (1, 'Acme', ?, ?)`, now, now).Error)
	require.NoError(t, conn.Exec(`INSERT INTO products (id, brand_id, model, slug, price, stock, created_at, updated_at) VALUES (1, 1, 'X', 'acme-x', 10, 1, ?, ?)`, now, now).Error)
	require.NoError(t, conn.Exec(`INSERT INTO clients (id, name, email, created_at, updated_at) VALUES (1, 'Ana', 'ana@example.com', ?, ?)`, now, now).Error)
	require.NoError(t, conn.Exec(`INSERT INTO orders (id, client_id, total, status, payment_method, created_at, updated_at) VALUES (1, 1, 10, 'pendiente', 'qr', ?, ?)`, now, now).Error)
	require.NoError(t, conn.Exec(`INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, subtotal, created_at) VALUES (1, 1, 1, 1, 10, 10, ?)`, now).Error)

	assert.Error(t, conn.Exec(`DELETE FROM products WHERE id = 1`).Error)

	require.NoError(t, conn.Exec(`DELETE FROM orders WHERE id = 1`).Error)
	var lines int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM order_lines`).Scan(&lines).Error)
	assert.Zero(t, lines)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INT);\n\n  CREATE INDEX b ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX b ON a (id)"}, stmts)
}

func TestMySQLScriptsMirrorEveryVersion(t *testing.T) {
	shared, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	mysqlScripts, err := fs.Glob(embeddedMigrations, mysqlMigrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, shared)

	names := func(paths []string) []string {
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			out = append(out, path.Base(p))
		}
		return out
	}
	assert.ElementsMatch(t, names(shared), names(mysqlScripts))
}

func TestMySQLScriptsAvoidUnsupportedDDL(t *testing.T) {
	scripts, err := fs.Glob(embeddedMigrations, mysqlMigrationsDir+"/*.up.sql")
	require.NoError(t, err)

	for _, name := range scripts {
		body, err := embeddedMigrations.ReadFile(name)
		require.NoError(t, err)
		script := strings.ToUpper(string(body))

		assert.NotContains(t, script, "CREATE INDEX", name)
		assert.NotContains(t, script, "CREATE UNIQUE INDEX", name)
		assert.NotContains(t, script, "JSONB", name)
		assert.NotContains(t, script, "TEXT NOT NULL DEFAULT", name)
		for _, stmt := range splitStatements(script) {
			assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"), "%s: %s", name, stmt)
		}
	}
}
