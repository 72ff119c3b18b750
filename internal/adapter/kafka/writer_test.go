package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeSnapshot(t *testing.T) {
	now := time.Date(2025, 9, 24, 15, 10, 0, 0, time.UTC)
	snapshot := domain.Snapshot{
		Date: "20250924",
		Storms: []domain.Storm{
			{ID: "AL05", Name: "Erin", Category: 2, Status: domain.StatusActive, StormTypeHistory: []string{"TS"}},
			{ID: "97L", Category: 1, Status: domain.StatusWatch, IsInvestigationalDisturbance: true},
		},
		FetchedAt: now,
	}

	msg, err := serializeSnapshot(snapshot)
	require.NoError(t, err)

	assert.Equal(t, []byte("20250924"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "snapshot_date", msg.Headers[0].Key)
	assert.Equal(t, []byte("20250924"), msg.Headers[0].Value)
	assert.Equal(t, "storm_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("2"), msg.Headers[1].Value)
	assert.Equal(t, "fetched_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, snapshot.Date, decoded.Date)
	assert.Len(t, decoded.Storms, 2)
	assert.Equal(t, "Erin", decoded.Storms[0].Name)
	assert.True(t, decoded.Storms[1].IsInvestigationalDisturbance)
	assert.True(t, now.Equal(decoded.FetchedAt))
}

func TestSerializeSnapshot_Empty(t *testing.T) {
	msg, err := serializeSnapshot(domain.Snapshot{Date: "20250101", Storms: []domain.Storm{}})
	require.NoError(t, err)
	assert.Equal(t, []byte("0"), msg.Headers[1].Value)
	assert.Contains(t, string(msg.Value), `"storms":[]`)
}
