package tenant_test

import (
	"context"
	"errors"
	"testing"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
	"anchorview/internal/domain/reconcile/reconciletest"
	"anchorview/internal/domain/tenant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *reconciletest.MemoryStore {
	store := reconciletest.NewMemoryStore()
	store.Seed(&entity.Project{ID: "pa", Name: "A", CompanyID: "c1"})
	store.Seed(&entity.Project{ID: "pb", Name: "B", CompanyID: "c2"})
	store.Seed(&entity.AnchorPoint{ID: "a1", ProjectID: "pa", NumeroPonto: 1})
	store.Seed(&entity.AnchorPoint{ID: "b1", ProjectID: "pb", NumeroPonto: 1})
	store.Seed(&entity.AnchorTest{ID: "ta", PontoID: "a1", Resultado: entity.StatusApproved})
	store.Seed(&entity.AnchorTest{ID: "tb", PontoID: "b1", Resultado: entity.StatusApproved})
	store.Seed(&entity.File{ID: "fa", URL: "data:,a", CompanyID: "c1"})
	store.Seed(&entity.File{ID: "fb", URL: "data:,b", CompanyID: "c2"})
	return store
}

func TestScopedStore_Find(t *testing.T) {
	s := tenant.Scope(seeded(), "c1")
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    entity.Kind
		id      string
		wantErr error
	}{
		{name: "own point", kind: entity.KindAnchorPoint, id: "a1"},
		{name: "own test", kind: entity.KindAnchorTest, id: "ta"},
		{name: "foreign point", kind: entity.KindAnchorPoint, id: "b1", wantErr: reconcile.ErrNotFound},
		{name: "foreign test", kind: entity.KindAnchorTest, id: "tb", wantErr: reconcile.ErrNotFound},
		{name: "foreign project", kind: entity.KindProject, id: "pb", wantErr: reconcile.ErrNotFound},
		{name: "own photo", kind: entity.KindFile, id: "fa"},
		{name: "foreign photo", kind: entity.KindFile, id: "fb", wantErr: reconcile.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Find(ctx, tt.kind, reconcile.ByID(tt.id))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScopedStore_Writes(t *testing.T) {
	// Arrange
	store := seeded()
	s := tenant.Scope(store, "c1")
	ctx := context.Background()

	// Act
	_, ownErr := s.Create(ctx, &entity.AnchorPoint{ID: "a2", ProjectID: "pa", NumeroPonto: 2})
	_, foreignErr := s.Create(ctx, &entity.AnchorPoint{ID: "b2", ProjectID: "pb", NumeroPonto: 2})
	_, orphanErr := s.Create(ctx, &entity.AnchorTest{ID: "t-orphan", PontoID: "missing", Resultado: entity.StatusApproved})
	_, moveErr := s.Update(ctx, "a1", &entity.AnchorPoint{ProjectID: "pb", NumeroPonto: 1})
	_, stealErr := s.Update(ctx, "b1", &entity.AnchorPoint{ProjectID: "pa", NumeroPonto: 1})
	deleteErr := s.Delete(ctx, entity.KindAnchorTest, "tb")

	// Assert
	assert.NoError(t, ownErr)
	assert.ErrorIs(t, foreignErr, tenant.ErrForbidden)
	assert.ErrorIs(t, orphanErr, tenant.ErrForbidden)
	assert.ErrorIs(t, moveErr, tenant.ErrForbidden)
	assert.ErrorIs(t, stealErr, reconcile.ErrNotFound)
	assert.ErrorIs(t, deleteErr, reconcile.ErrNotFound)
	assert.Equal(t, "pb", store.Get(entity.KindAnchorPoint, "b1").(*entity.AnchorPoint).ProjectID)
	assert.NotNil(t, store.Get(entity.KindAnchorTest, "tb"))
	assert.Nil(t, store.Get(entity.KindAnchorPoint, "b2"))
}

func TestScopedStore_List(t *testing.T) {
	s := tenant.Scope(seeded(), "c1")
	ctx := context.Background()

	tests, err := s.List(ctx, entity.KindAnchorTest, entity.Filter{})
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "ta", tests[0].EntityID())

	projects, err := s.List(ctx, entity.KindProject, entity.Filter{CompanyID: "c2"})
	require.NoError(t, err)
	assert.Empty(t, projects)

	files, err := s.List(ctx, entity.KindFile, entity.Filter{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "fa", files[0].EntityID())
}

func TestScopedStore_LookupFailure(t *testing.T) {
	store := seeded()
	store.FailOn("find", entity.KindProject, errors.New("connection reset"))
	s := tenant.Scope(store, "c1")

	_, err := s.Find(context.Background(), entity.KindAnchorPoint, reconcile.ByID("a1"))

	assert.ErrorContains(t, err, "connection reset")
}

func TestFromContext(t *testing.T) {
	_, err := tenant.FromContext(context.Background(), seeded())
	assert.ErrorIs(t, err, tenant.ErrNoCompany)

	ctx := tenant.WithCompany(context.Background(), "c1")
	id, ok := tenant.CompanyID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "c1", id)
}
