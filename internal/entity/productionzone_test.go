package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionZoneWipLimit(t *testing.T) {
	z, err := NewProductionZone("ZONE-A", "Fabrication", 0, 30, 2)
	require.NoError(t, err)

	j1, j2, j3 := NewID(), NewID(), NewID()
	require.NoError(t, z.Admit(j1))
	require.NoError(t, z.Admit(j2))
	assert.Equal(t, 2, z.CurrentWip())

	assert.ErrorIs(t, z.Admit(j3), ErrWipLimitExceeded)

	// re-admitting an already-present job is idempotent
	require.NoError(t, z.Admit(j1))

	z.Release(j1)
	assert.Equal(t, 1, z.CurrentWip())
	require.NoError(t, z.Admit(j3))
}

func TestProductionZoneContainsSequence(t *testing.T) {
	z, err := NewProductionZone("ZONE-A", "Fabrication", 31, 60, 2)
	require.NoError(t, err)

	assert.False(t, z.Contains(30))
	assert.True(t, z.Contains(31))
	assert.True(t, z.Contains(60))
	assert.False(t, z.Contains(61))
}

func TestNewProductionZoneRejectsInvalidRange(t *testing.T) {
	_, err := NewProductionZone("ZONE-A", "Fabrication", 10, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidSequenceRange)
}

func TestDefaultProductionZones(t *testing.T) {
	zones := DefaultProductionZones()
	require.Len(t, zones, 3)
	assert.Equal(t, "Initial Processing", zones[0].Name())
	assert.Equal(t, 0, zones[0].StartSeq())
	assert.Equal(t, 30, zones[0].EndSeq())
	assert.Equal(t, 3, zones[0].WipLimit())
	assert.Equal(t, "Bottleneck Zone", zones[1].Name())
	assert.Equal(t, 2, zones[1].WipLimit())
	assert.Equal(t, "Final Processing", zones[2].Name())
	assert.Equal(t, 61, zones[2].StartSeq())
	assert.Equal(t, 99, zones[2].EndSeq())
}
