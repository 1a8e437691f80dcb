package entity

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile/reconciletest"
	"anchorview/internal/domain/tenant"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// withCompany подставляет компанию пользователя так же, как auth middleware:
// из заголовка X-Company, по умолчанию c1
func withCompany(ctx huma.Context, next func(huma.Context)) {
	company := ctx.Header("X-Company")
	if company == "" {
		company = "c1"
	}
	next(huma.WithContext(ctx, tenant.WithCompany(ctx.Context(), company)))
}

func setup(t *testing.T) (humatest.TestAPI, *reconciletest.MemoryStore) {
	t.Helper()
	store := reconciletest.NewMemoryStore()
	store.Seed(&entity.Project{ID: "proj-1", Name: "Torre A", CompanyID: "c1"})
	store.Seed(&entity.Project{ID: "proj-2", Name: "Torre B", CompanyID: "c1"})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, api := humatest.New(t)
	NewHandler(store, log, huma.Middlewares{withCompany}).SetupRoutes(api)
	return api, store
}

type itemBody struct {
	Item json.RawMessage `json:"item"`
}

func decodeItem[T any](t *testing.T, body []byte) T {
	t.Helper()
	var wrap itemBody
	require.NoError(t, json.Unmarshal(body, &wrap))
	var out T
	require.NoError(t, json.Unmarshal(wrap.Item, &out))
	return out
}

func TestHandler_CreateAndFind(t *testing.T) {
	// Arrange
	api, store := setup(t)

	// Act
	created := api.Post("/api/entities/anchor_points", map[string]any{
		"projectId":   "proj-1",
		"numeroPonto": 7,
		"localizacao": "Cobertura",
		"status":      "Não Testado",
	})

	// Assert
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	point := decodeItem[entity.AnchorPoint](t, created.Body.Bytes())
	assert.NotEmpty(t, point.ID)
	assert.Equal(t, 1, store.Count(entity.KindAnchorPoint))

	byKey := api.Post("/api/entities/anchor_points/find", map[string]any{
		"projectId":   "proj-1",
		"numeroPonto": 7,
	})
	require.Equal(t, http.StatusOK, byKey.Code)
	assert.Equal(t, point.ID, decodeItem[entity.AnchorPoint](t, byKey.Body.Bytes()).ID)
}

func TestHandler_CreateKeepsClientID(t *testing.T) {
	api, store := setup(t)

	resp := api.Post("/api/entities/projects", map[string]any{
		"id":        "proj-local",
		"name":      "Torre A",
		"companyId": "c1",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.NotNil(t, store.Get(entity.KindProject, "proj-local"))
}

func TestHandler_Validation(t *testing.T) {
	api, _ := setup(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{
			name:   "point without project",
			path:   "/api/entities/anchor_points",
			body:   map[string]any{"numeroPonto": 1},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "test with unknown result",
			path:   "/api/entities/anchor_tests",
			body:   map[string]any{"pontoId": "p1", "resultado": "Talvez"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown kind",
			path:   "/api/entities/invoices",
			body:   map[string]any{"id": "x"},
			status: http.StatusNotFound,
		},
		{
			name:   "malformed payload",
			path:   "/api/entities/anchor_points",
			body:   []int{1, 2},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Post(tt.path, tt.body)

			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
		})
	}
}

func TestHandler_FindRequiresCriteria(t *testing.T) {
	api, _ := setup(t)

	resp := api.Post("/api/entities/anchor_points/find", map[string]any{"projectId": "proj-1"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	// Arrange
	api, store := setup(t)
	store.Seed(&entity.AnchorPoint{ID: "p1", ProjectID: "proj-1", NumeroPonto: 1, Status: entity.StatusNotTested})

	// Act
	updated := api.Put("/api/entities/anchor_points/p1", map[string]any{
		"projectId":   "proj-1",
		"numeroPonto": 1,
		"status":      "Aprovado",
	})
	missing := api.Put("/api/entities/anchor_points/nope", map[string]any{"projectId": "proj-1"})
	deleted := api.Delete("/api/entities/anchor_points/p1")
	again := api.Delete("/api/entities/anchor_points/p1")

	// Assert
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	assert.Equal(t, entity.StatusApproved, decodeItem[entity.AnchorPoint](t, updated.Body.Bytes()).Status)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, 0, store.Count(entity.KindAnchorPoint))
}

func TestHandler_List(t *testing.T) {
	// Arrange
	api, store := setup(t)
	store.Seed(&entity.AnchorPoint{ID: "p1", ProjectID: "proj-1", NumeroPonto: 1})
	store.Seed(&entity.AnchorPoint{ID: "p2", ProjectID: "proj-1", NumeroPonto: 2, Archived: true})
	store.Seed(&entity.AnchorPoint{ID: "p3", ProjectID: "proj-2", NumeroPonto: 1})

	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "by project", path: "/api/entities/anchor_points?projectId=proj-1", want: []string{"p1"}},
		{name: "with archived", path: "/api/entities/anchor_points?projectId=proj-1&includeArchived=true", want: []string{"p1", "p2"}},
		{name: "all", path: "/api/entities/anchor_points", want: []string{"p1", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp := api.Get(tt.path)

			// Assert
			require.Equal(t, http.StatusOK, resp.Code)
			var body struct {
				Items []entity.AnchorPoint `json:"items"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			ids := make([]string, 0, len(body.Items))
			for _, p := range body.Items {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHandler_StoreFailure(t *testing.T) {
	api, store := setup(t)
	store.FailOn("list", entity.KindProject, errors.New("connection refused"))

	resp := api.Get("/api/entities/projects")

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "connection refused")
}

func TestHandler_OtherCompanyIsInvisible(t *testing.T) {
	// Arrange
	api, store := setup(t)
	store.Seed(&entity.Project{ID: "proj-b", Name: "Edifício B", CompanyID: "c2"})
	store.Seed(&entity.AnchorPoint{ID: "pb", ProjectID: "proj-b", NumeroPonto: 1, Localizacao: "Fachada"})
	store.Seed(&entity.AnchorTest{ID: "tb", PontoID: "pb", Resultado: entity.StatusApproved})

	tests := []struct {
		name   string
		call   func() *httptest.ResponseRecorder
		status int
	}{
		{name: "find by id", status: http.StatusNotFound, call: func() *httptest.ResponseRecorder {
			return api.Post("/api/entities/anchor_points/find", map[string]any{"id": "pb"})
		}},
		{name: "update", status: http.StatusNotFound, call: func() *httptest.ResponseRecorder {
			return api.Put("/api/entities/anchor_points/pb", map[string]any{"projectId": "proj-1", "numeroPonto": 1, "localizacao": "Roubado"})
		}},
		{name: "delete point", status: http.StatusNotFound, call: func() *httptest.ResponseRecorder {
			return api.Delete("/api/entities/anchor_points/pb")
		}},
		{name: "delete test", status: http.StatusNotFound, call: func() *httptest.ResponseRecorder {
			return api.Delete("/api/entities/anchor_tests/tb")
		}},
		{name: "create point in foreign project", status: http.StatusForbidden, call: func() *httptest.ResponseRecorder {
			return api.Post("/api/entities/anchor_points", map[string]any{"projectId": "proj-b", "numeroPonto": 2})
		}},
		{name: "create test on foreign point", status: http.StatusForbidden, call: func() *httptest.ResponseRecorder {
			return api.Post("/api/entities/anchor_tests", map[string]any{"pontoId": "pb", "resultado": "Reprovado"})
		}},
		{name: "create project for foreign company", status: http.StatusForbidden, call: func() *httptest.ResponseRecorder {
			return api.Post("/api/entities/projects", map[string]any{"name": "X", "companyId": "c2"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp := tt.call()

			// Assert
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
		})
	}

	point := store.Get(entity.KindAnchorPoint, "pb").(*entity.AnchorPoint)
	assert.Equal(t, "Fachada", point.Localizacao)
	assert.NotNil(t, store.Get(entity.KindAnchorTest, "tb"))
	assert.Equal(t, 1, store.Count(entity.KindAnchorTest))
}

func TestHandler_ListIsScopedToCompany(t *testing.T) {
	api, store := setup(t)
	store.Seed(&entity.Project{ID: "proj-b", Name: "Edifício B", CompanyID: "c2"})
	store.Seed(&entity.AnchorPoint{ID: "pa", ProjectID: "proj-1", NumeroPonto: 1})
	store.Seed(&entity.AnchorPoint{ID: "pb", ProjectID: "proj-b", NumeroPonto: 1})

	ids := func(resp *httptest.ResponseRecorder) []string {
		var body struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		out := make([]string, 0, len(body.Items))
		for _, it := range body.Items {
			out = append(out, it.ID)
		}
		return out
	}

	assert.Equal(t, []string{"pa"}, ids(api.Get("/api/entities/anchor_points")))
	assert.Empty(t, ids(api.Get("/api/entities/anchor_points?projectId=proj-b")))
	assert.Empty(t, ids(api.Get("/api/entities/projects?companyId=c2")))
	assert.Equal(t, []string{"proj-1", "proj-2"}, ids(api.Get("/api/entities/projects")))
	assert.Equal(t, []string{"pb"}, ids(api.Get("/api/entities/anchor_points", "X-Company: c2")))
}

func TestHandler_WithoutCompanyIsUnauthorized(t *testing.T) {
	store := reconciletest.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, api := humatest.New(t)
	NewHandler(store, log, huma.Middlewares{}).SetupRoutes(api)

	resp := api.Get("/api/entities/projects")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
