package seed_test

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/migration"
	"github.com/smallbiznis/storefront/internal/seed"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDemoCatalogIsIdempotent(t *testing.T) {
	conn := db.NewTest(t)
	require.NoError(t, migration.Apply(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, seed.EnsureDemoCatalog(conn, node))
	require.NoError(t, seed.EnsureDemoCatalog(conn, node))

	var brands, products int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM brands`).Scan(&brands).Error)
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM products`).Scan(&products).Error)
	assert.Equal(t, int64(3), brands)
	assert.Equal(t, int64(5), products)

	var productSlug string
	require.NoError(t, conn.Raw(`SELECT slug FROM products WHERE model = ?`, "Galaxy S24").Scan(&productSlug).Error)
	assert.Equal(t, "samsung-galaxy-s24", productSlug)
}

func TestEnsureDemoCatalogRequiresHandles(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	assert.Error(t, seed.EnsureDemoCatalog(nil, node))
	assert.Error(t, seed.EnsureDemoCatalog(db.NewTest(t), nil))
}
