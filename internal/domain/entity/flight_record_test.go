package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalKeyID(t *testing.T) {
	date := MustParseDate("2025-06-02")
	base := NaturalKeyID("LHR", "JFK", date, "UA", "UA901", "10:15", CabinEconomy)

	_, err := uuid.Parse(base)
	require.NoError(t, err)

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, base, NaturalKeyID("LHR", "JFK", date, "UA", "UA901", "10:15", CabinEconomy))
	})

	t.Run("case folded", func(t *testing.T) {
		assert.Equal(t, base, NaturalKeyID("lhr", "jfk", date, "ua", "ua901", "10:15", CabinEconomy))
	})

	tests := []struct {
		name string
		id   string
	}{
		{name: "cabin", id: NaturalKeyID("LHR", "JFK", date, "UA", "UA901", "10:15", CabinBusiness)},
		{name: "date", id: NaturalKeyID("LHR", "JFK", date.AddDays(1), "UA", "UA901", "10:15", CabinEconomy)},
		{name: "departure", id: NaturalKeyID("LHR", "JFK", date, "UA", "UA901", "18:40", CabinEconomy)},
		{name: "direction", id: NaturalKeyID("JFK", "LHR", date, "UA", "UA901", "10:15", CabinEconomy)},
		{name: "carrier", id: NaturalKeyID("LHR", "JFK", date, "BA", "UA901", "10:15", CabinEconomy)},
	}

	for _, tt := range tests {
		t.Run("differs by "+tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.id)
		})
	}
}
