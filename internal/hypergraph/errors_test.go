package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	t.Parallel()

	err := NotFound("entity", `"THEFT"`)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `entity "THEFT" not found`, err.Error())
}
