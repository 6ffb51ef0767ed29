package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineageFixture() []Record {
	return []Record{
		{
			PatternID: "fin-guaranteed-returns",
			Tier:      30,
			Start:     0,
			End:       22,
			Before:    "Guaranteed 15% returns",
			After:     "Targeted 15% returns",
		},
		{
			PatternID: "fin-risk-warning",
			Tier:      40,
			Start:     35,
			End:       35,
			Before:    "",
			After:     "\n\nCapital is at risk.",
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(lineageFixture(), "2026-01")
	require.NoError(t, err)
	b, err := Compute(lineageFixture(), "2026-01")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // sha256 hex
}

func TestCompute_OrderSensitive(t *testing.T) {
	lineage := lineageFixture()
	forward, err := Compute(lineage, "2026-01")
	require.NoError(t, err)

	reversed := []Record{lineage[1], lineage[0]}
	backward, err := Compute(reversed, "2026-01")
	require.NoError(t, err)

	assert.NotEqual(t, forward, backward, "application order is part of the lineage")
}

func TestCompute_CatalogueVersionSensitive(t *testing.T) {
	v1, err := Compute(lineageFixture(), "2026-01")
	require.NoError(t, err)
	v2, err := Compute(lineageFixture(), "2026-02")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestCompute_EmptyLineage(t *testing.T) {
	a, err := Compute(nil, "2026-01")
	require.NoError(t, err)
	b, err := Compute([]Record{}, "2026-01")
	require.NoError(t, err)

	assert.Equal(t, a, b, "nil and empty lineage are the same canonical form")
}
