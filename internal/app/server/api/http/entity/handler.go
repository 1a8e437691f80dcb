package entity

import (
	"context"
	"errors"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
	"anchorview/internal/domain/tenant"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Store авторитетное хранилище сущностей
type Store interface {
	reconcile.RemoteStore
	List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error)
}

type Handler struct {
	store      Store
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(store Store, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		store:      store,
		log:        log.With(slog.String("component", "entity_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

// scoped хранилище, ограниченное компанией пользователя запроса
func (h *Handler) scoped(ctx context.Context) (*tenant.ScopedStore, error) {
	store, err := tenant.FromContext(ctx, h.store)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	return store, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, err
	}
	store, err := h.scoped(ctx)
	if err != nil {
		return nil, err
	}

	list, err := store.List(ctx, kind, entity.Filter{
		CompanyID:       input.CompanyID,
		ProjectID:       input.ProjectID,
		ParentID:        input.ParentID,
		IncludeArchived: input.IncludeArchived,
	})
	if err != nil {
		return nil, h.storeError("list", kind, err)
	}

	items := make([]any, 0, len(list))
	for _, e := range list {
		items = append(items, e)
	}
	return &listOutput{Body: listResponse{Items: items}}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*itemOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if input.Body.ID == "" && !input.Body.HasNaturalKey() {
		return nil, huma.Error400BadRequest("id or (projectId, numeroPonto) is required")
	}
	store, err := h.scoped(ctx)
	if err != nil {
		return nil, err
	}

	e, err := store.Find(ctx, kind, input.Body)
	if err != nil {
		return nil, h.storeError("find", kind, err)
	}
	return &itemOutput{Body: itemResponse{Item: e}}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*itemOutput, error) {
	e, err := decode(input.Kind, input.RawBody)
	if err != nil {
		return nil, err
	}
	store, err := h.scoped(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := store.Create(ctx, e)
	if err != nil {
		return nil, h.storeError("create", e.EntityKind(), err)
	}
	return &itemOutput{Body: itemResponse{Item: saved}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*itemOutput, error) {
	e, err := decode(input.Kind, input.RawBody)
	if err != nil {
		return nil, err
	}
	store, err := h.scoped(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := store.Update(ctx, input.ID, e)
	if err != nil {
		return nil, h.storeError("update", e.EntityKind(), err)
	}
	return &itemOutput{Body: itemResponse{Item: saved}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*struct{}, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, err
	}
	store, err := h.scoped(ctx)
	if err != nil {
		return nil, err
	}

	if err := store.Delete(ctx, kind, input.ID); err != nil {
		return nil, h.storeError("delete", kind, err)
	}
	return &struct{}{}, nil
}

func parseKind(s string) (entity.Kind, error) {
	kind := entity.Kind(s)
	if !kind.Valid() {
		return "", huma.Error404NotFound("unknown entity kind " + s)
	}
	return kind, nil
}

type validator interface {
	Validate() error
}

func decode(kindName string, body []byte) (entity.Entity, error) {
	kind, err := parseKind(kindName)
	if err != nil {
		return nil, err
	}

	e, err := entity.Decode(kind, body)
	if err != nil {
		return nil, huma.Error400BadRequest("malformed payload", err)
	}
	if v, ok := e.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
	}
	return e, nil
}

func (h *Handler) storeError(op string, kind entity.Kind, err error) error {
	if errors.Is(err, reconcile.ErrNotFound) {
		return huma.Error404NotFound(string(kind) + " not found")
	}
	if errors.Is(err, tenant.ErrForbidden) {
		return huma.Error403Forbidden(err.Error())
	}
	h.log.Error("store operation failed",
		slog.String("op", op),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()))
	return huma.Error500InternalServerError("storage failure")
}
