package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anchorview/internal/app/server/api/http/middleware/auth"
	"anchorview/internal/domain/activity"
	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
	"anchorview/internal/domain/tenant"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Store авторитетное хранилище, над которым выполняется сверка
type Store interface {
	tenant.Store
	// CountModifiedSince число записей компании, измененных после since
	CountModifiedSince(ctx context.Context, kind entity.Kind, companyID string, since time.Time) (int, error)
}

type Handler struct {
	store      Store
	activity   activity.Recorder
	log        *slog.Logger
	middleware huma.Middlewares
	now        func() time.Time
}

// NewHandler создает обработчик; activity может быть nil, тогда журнал не ведется
func NewHandler(store Store, activity activity.Recorder, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		store:      store,
		activity:   activity,
		log:        log.With(slog.String("component", "sync_handler")),
		middleware: mws,
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncPointsOp(), h.syncPoints)
	huma.Register(api, h.syncTestsOp(), h.syncTests)
	huma.Register(api, h.syncPhotosOp(), h.syncPhotos)
	huma.Register(api, h.syncBatchOp(), h.syncBatch)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) syncPoints(ctx context.Context, input *payloadsInput) (*resultOutput, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(input.RawBody, &items); err != nil {
		return nil, huma.Error400BadRequest("expected an array of anchor points", err)
	}

	return h.run(ctx, batchRequest{Points: items})
}

func (h *Handler) syncTests(ctx context.Context, input *payloadsInput) (*resultOutput, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(input.RawBody, &items); err != nil {
		return nil, huma.Error400BadRequest("expected an array of anchor tests", err)
	}

	return h.run(ctx, batchRequest{Tests: items})
}

func (h *Handler) syncPhotos(ctx context.Context, input *payloadsInput) (*resultOutput, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(input.RawBody, &items); err != nil {
		return nil, huma.Error400BadRequest("expected an array of photos", err)
	}

	return h.run(ctx, batchRequest{Photos: items})
}

func (h *Handler) syncBatch(ctx context.Context, input *batchInput) (*resultOutput, error) {
	var req batchRequest
	if err := json.Unmarshal(input.RawBody, &req); err != nil {
		return nil, huma.Error400BadRequest("expected {points, tests, photos}", err)
	}

	return h.run(ctx, req)
}

// run сверяет точки, затем тесты, затем загружает фото в пределах компании
// пользователя. Сверщик создается на запрос: соответствие локальных id точек
// серверным живет только в пределах одного пакета.
func (h *Handler) run(ctx context.Context, req batchRequest) (*resultOutput, error) {
	store, err := tenant.FromContext(ctx, h.store)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	companyID, _ := tenant.CompanyID(ctx)
	rec := reconcile.New(store, h.log, reconcile.WithClock(h.now))

	mutations := make([]reconcile.Mutation, 0, len(req.Points)+len(req.Tests)+len(req.Photos))
	res := reconcile.Result{Errors: []string{}}

	collect := func(kind entity.Kind, label string, items []json.RawMessage) {
		for i, raw := range items {
			m, err := reconcile.NewMutation(reconcile.OpCreate, kind, raw)
			if err != nil {
				res.Add(fmt.Sprintf("%s #%d", label, i+1), err)
				continue
			}
			mutations = append(mutations, m)
		}
	}
	collect(entity.KindAnchorPoint, "Ponto", req.Points)
	collect(entity.KindAnchorTest, "Teste", req.Tests)
	collect(entity.KindFile, "Foto", req.Photos)

	// фото без companyId принадлежат компании пользователя
	for _, m := range mutations {
		if f, ok := m.(reconcile.FileMutation); ok && f.File.CompanyID == "" {
			f.File.CompanyID = companyID
		}
	}

	applied := rec.ApplyAll(ctx, mutations)
	res.Synced += applied.Synced
	res.Failed += applied.Failed
	res.Errors = append(res.Errors, applied.Errors...)

	h.log.Info("batch reconciled",
		slog.Int("points", len(req.Points)),
		slog.Int("tests", len(req.Tests)),
		slog.Int("photos", len(req.Photos)),
		slog.Int("synced", res.Synced),
		slog.Int("failed", res.Failed))
	h.record(ctx, req, res)
	return &resultOutput{Body: res}, nil
}

// record пишет пакет в журнал компании. Ошибка журнала не влияет на ответ.
func (h *Handler) record(ctx context.Context, req batchRequest, res reconcile.Result) {
	if h.activity == nil {
		return
	}
	companyID, _ := tenant.CompanyID(ctx)
	email, _ := auth.GetEmail(ctx)

	entry := activity.Sync(companyID, email, activity.SyncDetails{
		Points: len(req.Points),
		Tests:  len(req.Tests),
		Photos: len(req.Photos),
		Synced: res.Synced,
		Failed: res.Failed,
		Errors: res.Errors,
	}, h.now().UTC())

	if err := h.activity.Record(context.WithoutCancel(ctx), entry); err != nil {
		h.log.Warn("sync activity not recorded",
			slog.String("company_id", companyID),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) status(ctx context.Context, input *statusInput) (*statusOutput, error) {
	companyID, ok := tenant.CompanyID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	points, err := h.store.CountModifiedSince(ctx, entity.KindAnchorPoint, companyID, input.Since)
	if err != nil {
		h.log.Error("count points failed", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("storage failure")
	}
	tests, err := h.store.CountModifiedSince(ctx, entity.KindAnchorTest, companyID, input.Since)
	if err != nil {
		h.log.Error("count tests failed", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("storage failure")
	}

	return &statusOutput{Body: reconcile.ServerStatus{
		Points:     points,
		Tests:      tests,
		ServerTime: h.now().UTC(),
	}}, nil
}
