package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"anchorview/internal/domain/activity"
	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile/reconciletest"
	"anchorview/internal/domain/session"
	"anchorview/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type memoryEntities struct {
	*reconciletest.MemoryStore
}

func (memoryEntities) CountModifiedSince(context.Context, entity.Kind, string, time.Time) (int, error) {
	return 0, nil
}

type memoryUsers struct {
	byEmail map[string]user.User
}

func (m *memoryUsers) Create(_ context.Context, u user.User) (string, error) {
	u.ID = "u-" + u.Email
	m.byEmail[u.Email] = u
	return u.ID, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type okDB struct{}

func (okDB) Ping(context.Context) error { return nil }

type memoryJournal struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (j *memoryJournal) Record(_ context.Context, e activity.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memoryJournal) all() []activity.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]activity.Entry(nil), j.entries...)
}

func newServer(t *testing.T) (*httptest.Server, *reconciletest.MemoryStore) {
	t.Helper()
	return newServerWithJournal(t, &memoryJournal{})
}

func newServerWithJournal(t *testing.T, journal *memoryJournal) (*httptest.Server, *reconciletest.MemoryStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte("Ancoragem2024"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &memoryUsers{byEmail: map[string]user.User{
		"tech@example.com":  {ID: "u1", Email: "tech@example.com", CompanyID: "c1", PasswordHash: string(hash), Active: true},
		"other@example.com": {ID: "u2", Email: "other@example.com", CompanyID: "c2", PasswordHash: string(hash), Active: true},
	}}

	store := reconciletest.NewMemoryStore()
	store.Seed(&entity.Project{ID: "proj-1", Name: "Torre A", CompanyID: "c1"})
	mux := Mount(Deps{
		Entities: memoryEntities{store},
		Users:    user.NewService(repo, user.NewPasswordValidator(), log),
		Tokens:   session.NewService("api-test-secret", time.Hour, log),
		DB:       okDB{},
		Activity: journal,
	}, log)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/auth/sync-token", "",
		`{"email":"`+email+`","password":"Ancoragem2024"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok session.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	return tok.Token
}

func TestAPI_HealthIsPublic(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "up", body["database"])
}

func TestAPI_EntitiesRequireToken(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/entities/projects", "", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_LoginThenSync(t *testing.T) {
	// Arrange
	srv, store := newServer(t)
	store.Seed(&entity.AnchorPoint{ID: "p1", ProjectID: "proj-1", NumeroPonto: 1})

	token := login(t, srv, "Tech@Example.com")

	// Act
	resp := do(t, http.MethodPost, srv.URL+"/api/sync/tests", token,
		`[{"id":"t1","pontoId":"p1","resultado":"Aprovado"}]`)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.StatusApproved, store.Get(entity.KindAnchorPoint, "p1").(*entity.AnchorPoint).Status)
}

func TestAPI_SyncIsJournaledPerCompany(t *testing.T) {
	// Arrange
	journal := &memoryJournal{}
	srv, _ := newServerWithJournal(t, journal)
	token := login(t, srv, "tech@example.com")

	// Act
	resp := do(t, http.MethodPost, srv.URL+"/api/sync/points", token,
		`[{"id":"local-1","projectId":"proj-1","numeroPonto":5}]`)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := journal.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].CompanyID)
	assert.Equal(t, "tech@example.com", entries[0].UserEmail)
	assert.Equal(t, activity.TypeSync, entries[0].Type)
}

func TestAPI_BadCredentials(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/auth/sync-token", "",
		`{"email":"tech@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CompaniesAreIsolated(t *testing.T) {
	// Arrange
	srv, store := newServer(t)
	store.Seed(&entity.AnchorPoint{ID: "p1", ProjectID: "proj-1", NumeroPonto: 1, Localizacao: "Fachada", Status: entity.StatusNotTested})
	other := login(t, srv, "other@example.com")

	// Act
	list := do(t, http.MethodGet, srv.URL+"/api/entities/anchor_points?projectId=proj-1", other, "")
	update := do(t, http.MethodPut, srv.URL+"/api/entities/anchor_points/p1", other,
		`{"projectId":"proj-1","numeroPonto":1,"localizacao":"Alterado"}`)
	remove := do(t, http.MethodDelete, srv.URL+"/api/entities/anchor_points/p1", other, "")
	synced := do(t, http.MethodPost, srv.URL+"/api/sync/tests", other,
		`[{"id":"t1","pontoId":"p1","resultado":"Reprovado"}]`)

	// Assert
	require.Equal(t, http.StatusOK, list.StatusCode)
	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&body))
	assert.Empty(t, body.Items)
	assert.Equal(t, http.StatusNotFound, update.StatusCode)
	assert.Equal(t, http.StatusNotFound, remove.StatusCode)
	require.Equal(t, http.StatusOK, synced.StatusCode)

	point := store.Get(entity.KindAnchorPoint, "p1").(*entity.AnchorPoint)
	assert.Equal(t, "Fachada", point.Localizacao)
	assert.Equal(t, entity.StatusNotTested, point.Status)
	assert.Nil(t, store.Get(entity.KindAnchorTest, "t1"))
}
