package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anchorview/internal/domain/entity"

	"golang.org/x/exp/slog"
)

// Result агрегированный итог синхронизации пакета изменений
type Result struct {
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

// Add учитывает исход одного изменения
func (r *Result) Add(label string, err error) {
	if err == nil {
		r.Synced++
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", label, err))
}

// Reconciler сверяет локально созданные сущности с удаленным хранилищем
// и применяет идемпотентный upsert.
type Reconciler struct {
	remote RemoteStore
	log    *slog.Logger
	now    func() time.Time
	// aliases: локальный id точки -> id той же точки на сервере
	aliases Aliases
}

// New создает Reconciler поверх удаленного хранилища
func New(remote RemoteStore, log *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote:  remote,
		log:     log.With(slog.String("component", "reconcile")),
		now:     time.Now,
		aliases: NewMemoryAliases(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply применяет одно изменение и возвращает сохраненную запись.
// Для удаления возвращается nil.
func (r *Reconciler) Apply(ctx context.Context, m Mutation) (entity.Entity, error) {
	switch v := m.(type) {
	case PointMutation:
		return r.applyPoint(ctx, v)
	case TestMutation:
		return r.applyTest(ctx, v)
	case FileMutation:
		return r.applyFile(ctx, v)
	case RecordMutation:
		return r.applyRecord(ctx, v)
	default:
		return nil, fmt.Errorf("unsupported mutation %T", m)
	}
}

// ApplyAll применяет изменения строго по порядку. Ошибка отдельного изменения
// не прерывает пакет, а попадает в Result.Errors.
func (r *Reconciler) ApplyAll(ctx context.Context, ms []Mutation) Result {
	res := Result{Errors: []string{}}
	for _, m := range ms {
		_, err := r.Apply(ctx, m)
		res.Add(Describe(m), err)
	}
	return res
}

// RemoteID возвращает серверный id для локального id точки, если он отличается
func (r *Reconciler) RemoteID(ctx context.Context, localID string) (string, error) {
	if localID == "" {
		return "", nil
	}
	id, err := r.aliases.ResolveAlias(ctx, localID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve point alias: %w", err)
	}
	return id, nil
}

func (r *Reconciler) remember(ctx context.Context, localID, remoteID string) error {
	if localID == "" || localID == remoteID {
		return nil
	}
	if err := r.aliases.SaveAlias(ctx, localID, remoteID); err != nil {
		return fmt.Errorf("failed to save point alias: %w", err)
	}
	return nil
}

func (r *Reconciler) applyPoint(ctx context.Context, m PointMutation) (entity.Entity, error) {
	remoteID, err := r.RemoteID(ctx, m.Point.ID)
	if err != nil {
		return nil, err
	}

	if m.Operation == OpDelete {
		return nil, r.delete(ctx, entity.KindAnchorPoint, remoteID)
	}

	payload := *m.Point
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	payload.ID = remoteID

	numero := payload.NumeroPonto
	matcher := Matcher{ID: payload.ID, ProjectID: payload.ProjectID, NumeroPonto: &numero}

	existing, err := r.remote.Find(ctx, entity.KindAnchorPoint, matcher)
	switch {
	case err == nil:
		localID := m.Point.ID
		// id сервера не перезаписывается локальным
		payload.ID = existing.EntityID()
		if localID != payload.ID {
			r.log.Debug("point matched by natural key",
				slog.String("local_id", localID),
				slog.String("remote_id", payload.ID),
				slog.Int("numero_ponto", numero))
		}
		saved, err := r.remote.Update(ctx, payload.ID, &payload)
		if err != nil {
			return nil, fmt.Errorf("failed to update point: %w", err)
		}
		return saved, r.remember(ctx, localID, saved.EntityID())

	case errors.Is(err, ErrNotFound):
		saved, err := r.remote.Create(ctx, &payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create point: %w", err)
		}
		return saved, r.remember(ctx, m.Point.ID, saved.EntityID())

	default:
		return nil, fmt.Errorf("failed to find point: %w", err)
	}
}

// applyTest выполняет двухшаговую операцию:
//  1. upsert теста по id;
//  2. перенос resultado в status родительской точки.
//
// Если шаг 2 не удался, результат шага 1 остается в хранилище, а ошибка
// оборачивается в ErrStatusPropagation. Повтор изменения идемпотентен.
func (r *Reconciler) applyTest(ctx context.Context, m TestMutation) (entity.Entity, error) {
	if m.Operation == OpDelete {
		return nil, r.delete(ctx, entity.KindAnchorTest, m.Test.ID)
	}

	payload := *m.Test
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	pontoID, err := r.RemoteID(ctx, payload.PontoID)
	if err != nil {
		return nil, err
	}
	payload.PontoID = pontoID

	saved, err := r.upsertByID(ctx, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to save test: %w", err)
	}

	test, ok := saved.(*entity.AnchorTest)
	if !ok {
		return saved, fmt.Errorf("unexpected test type %T", saved)
	}

	if err := r.propagateStatus(ctx, test.PontoID, test.Resultado); err != nil {
		r.log.Warn("test saved but point status is stale",
			slog.String("test_id", test.ID),
			slog.String("ponto_id", test.PontoID),
			slog.String("error", err.Error()))
		return saved, fmt.Errorf("%w: %v", ErrStatusPropagation, err)
	}

	return saved, nil
}

func (r *Reconciler) propagateStatus(ctx context.Context, pointID string, status entity.PointStatus) error {
	found, err := r.remote.Find(ctx, entity.KindAnchorPoint, ByID(pointID))
	if err != nil {
		return err
	}

	point, ok := found.(*entity.AnchorPoint)
	if !ok {
		return fmt.Errorf("unexpected point type %T", found)
	}

	point.Status = status
	_, err = r.remote.Update(ctx, point.ID, point)
	return err
}

// applyFile загружает фото один раз. Уже принятый файл не перезаписывается,
// сохраненная копия помечается как загруженная.
func (r *Reconciler) applyFile(ctx context.Context, m FileMutation) (entity.Entity, error) {
	if m.Operation == OpDelete {
		return nil, r.delete(ctx, entity.KindFile, m.File.ID)
	}

	f := *m.File
	f.FillDefaults(r.now().UTC())
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if f.ID != "" {
		existing, err := r.remote.Find(ctx, entity.KindFile, ByID(f.ID))
		switch {
		case err == nil:
			r.log.Debug("file already uploaded", slog.String("id", f.ID))
			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("failed to look up file: %w", err)
		}
	}

	f.Uploaded = true
	saved, err := r.remote.Create(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	return saved, nil
}

func (r *Reconciler) applyRecord(ctx context.Context, m RecordMutation) (entity.Entity, error) {
	if m.Operation == OpDelete {
		return nil, r.delete(ctx, m.Kind(), m.ID())
	}

	saved, err := r.upsertByID(ctx, m.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", m.Kind(), err)
	}
	return saved, nil
}

func (r *Reconciler) upsertByID(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	if e.EntityID() != "" {
		existing, err := r.remote.Find(ctx, e.EntityKind(), ByID(e.EntityID()))
		switch {
		case err == nil:
			return r.remote.Update(ctx, existing.EntityID(), e)
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	return r.remote.Create(ctx, e)
}

func (r *Reconciler) delete(ctx context.Context, kind entity.Kind, id string) error {
	err := r.remote.Delete(ctx, kind, id)
	if errors.Is(err, ErrNotFound) {
		// уже удалено
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return nil
}
