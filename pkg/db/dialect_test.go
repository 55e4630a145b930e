package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
)

func TestDialectMySQLAllowsMultiStatementMigrations(t *testing.T) {
	d, err := Dialect(Config{Type: "mysql", Host: "db", Port: "3306", Name: "storefront", User: "app", Password: "secret"})
	require.NoError(t, err)

	dialector, ok := d.(*mysql.Dialector)
	require.True(t, ok)
	assert.Equal(t, "app:secret@tcp(db:3306)/storefront?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true", dialector.Config.DSN)
	assert.Equal(t, "mysql", d.Name())
}

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}
