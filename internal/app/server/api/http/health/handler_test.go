package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type stubDB struct {
	err   error
	calls int
}

func (s *stubDB) Ping(ctx context.Context) error {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_healthCheck(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantCode   int
		wantStatus string
		wantDB     string
		wantError  string
	}{
		{name: "database up", db: &stubDB{}, wantCode: http.StatusOK, wantStatus: StatusOK, wantDB: DatabaseUp},
		{
			name:       "database down",
			db:         &stubDB{err: errors.New("connection refused")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusDegraded,
			wantDB:     DatabaseDown,
			wantError:  "connection refused",
		},
		{name: "no database", wantCode: http.StatusOK, wantStatus: StatusOK, wantDB: DatabaseNotAttached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(tt.db, discardLogger(), huma.Middlewares{})

			// Act
			output, err := handler.healthCheck(context.Background(), &Input{})

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, output.Status)
			assert.Equal(t, tt.wantStatus, output.Body.Status)
			assert.Equal(t, tt.wantDB, output.Body.Database)
			assert.Equal(t, tt.wantError, output.Body.Error)
		})
	}
}

func TestHandler_Route(t *testing.T) {
	// Arrange
	db := &stubDB{}
	_, api := humatest.New(t)
	NewHandler(db, discardLogger(), huma.Middlewares{}).SetupRoutes(api)

	// Act
	resp := api.Get("/api/health")

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, db.calls)
	assert.JSONEq(t, `{"status":"OK","database":"up"}`, stripSchema(t, resp.Body.Bytes()))
}

func TestHandler_RouteDatabaseDown(t *testing.T) {
	// Arrange
	_, api := humatest.New(t)
	NewHandler(&stubDB{err: errors.New("connection refused")}, discardLogger(), huma.Middlewares{}).SetupRoutes(api)

	// Act
	resp := api.Get("/api/health")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"status":"DEGRADED","database":"down","error":"connection refused"}`, stripSchema(t, resp.Body.Bytes()))
}

// stripSchema убирает поле $schema, которое huma добавляет в ответ
func stripSchema(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]any
	assert.NoError(t, json.Unmarshal(body, &m))
	delete(m, "$schema")
	out, err := json.Marshal(m)
	assert.NoError(t, err)
	return string(out)
}
