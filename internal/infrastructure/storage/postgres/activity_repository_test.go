package postgres

import (
	"testing"
	"time"

	"anchorview/internal/domain/activity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityArgs(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entry    activity.Entry
		wantMeta string
	}{
		{
			name:     "sync details",
			entry:    activity.Sync("c1", "tech@example.com", activity.SyncDetails{Points: 1, Synced: 1}, at),
			wantMeta: `{"points":1,"tests":0,"photos":0,"synced":1,"failed":0}`,
		},
		{
			name:     "no metadata",
			entry:    activity.Entry{CompanyID: "c1", Type: activity.TypeSync, CreatedAt: at},
			wantMeta: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := activityArgs("a-1", tt.entry)

			require.NoError(t, err)
			require.Len(t, args, 7)
			assert.Equal(t, "a-1", args[0])
			assert.Equal(t, "c1", args[1])
			assert.Equal(t, "sync", args[3])
			assert.JSONEq(t, tt.wantMeta, string(args[5].([]byte)))
			assert.Equal(t, at, args[6])
		})
	}
}

func TestActivityArgs_BadMetadata(t *testing.T) {
	_, err := activityArgs("a-1", activity.Entry{Metadata: make(chan int)})

	assert.Error(t, err)
}
