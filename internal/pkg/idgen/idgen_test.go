package idgen_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
)

func TestUUIDGeneratorPrefixesIDs(t *testing.T) {
	gen := idgen.NewUUID("tta")

	id := gen.Generate()
	require.True(t, strings.HasPrefix(id, "tta_"))
	_, err := uuid.Parse(strings.TrimPrefix(id, "tta_"))
	require.NoError(t, err)

	assert.NotEqual(t, id, gen.Generate())
}

func TestUUIDGeneratorWithoutPrefix(t *testing.T) {
	gen := idgen.NewUUID("")

	_, err := uuid.Parse(gen.Generate())
	require.NoError(t, err)
}

func TestSequentialGeneratorIsDeterministic(t *testing.T) {
	gen := idgen.NewSequential("ent")

	assert.Equal(t, "ent_1", gen.Generate())
	assert.Equal(t, "ent_2", gen.Generate())

	bare := idgen.NewSequential("")
	assert.Equal(t, "1", bare.Generate())
}
