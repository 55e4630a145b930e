package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCorrelationIDGeneratesOnce(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	assert.Len(t, cid, 26)

	_, again := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, again)
	assert.Equal(t, map[string]string{"correlation_id": cid}, Metadata(ctx))
}

func TestContextWithCorrelationIDIgnoresEmpty(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "")
	assert.Empty(t, ExtractCorrelationID(ctx))
	assert.Empty(t, Metadata(ctx))
}
