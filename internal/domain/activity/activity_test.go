package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync(t *testing.T) {
	// Arrange
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	details := SyncDetails{Points: 2, Tests: 1, Synced: 2, Failed: 1, Errors: []string{"Teste #1: bad"}}

	// Act
	e := Sync("c1", "tech@example.com", details, at)

	// Assert
	assert.Equal(t, TypeSync, e.Type)
	assert.Equal(t, "c1", e.CompanyID)
	assert.Equal(t, "tech@example.com", e.UserEmail)
	assert.Equal(t, at, e.CreatedAt)
	assert.NotEmpty(t, e.Description)

	raw, err := json.Marshal(e.Metadata)
	require.NoError(t, err)
	assert.JSONEq(t, `{"points":2,"tests":1,"photos":0,"synced":2,"failed":1,"errors":["Teste #1: bad"]}`, string(raw))
}
