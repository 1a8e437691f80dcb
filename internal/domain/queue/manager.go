package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Manager ведет очередь изменений и прогоняет ее через сверку
type Manager struct {
	repo    Repository
	applier Applier
	mirror  Mirror
	log     *slog.Logger

	mu       sync.Mutex
	draining bool
	now      func() time.Time
}

// NewManager создает менеджер очереди. mirror может быть nil.
func NewManager(repo Repository, applier Applier, mirror Mirror, log *slog.Logger) *Manager {
	return &Manager{
		repo:    repo,
		applier: applier,
		mirror:  mirror,
		log:     log.With(slog.String("component", "queue")),
		now:     time.Now,
	}
}

// Enqueue добавляет изменение в очередь со статусом pending.
// Повторные изменения одной сущности не схлопываются.
func (m *Manager) Enqueue(ctx context.Context, op reconcile.Operation, table entity.Kind, data any) (*Item, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", reconcile.ErrUnknownOperation, op)
	}
	if !table.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownKind, table)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue payload: %w", err)
	}

	now := m.now()
	item := &Item{
		ID:        uuid.NewString(),
		Table:     table,
		Operation: op,
		Data:      raw,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.InsertQueueItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s %s: %w", op, table, err)
	}

	m.log.Debug("mutation enqueued",
		slog.String("id", item.ID),
		slog.String("table", string(table)),
		slog.String("operation", string(op)))

	return item, nil
}

// PendingCount количество элементов, ожидающих отправки
func (m *Manager) PendingCount(ctx context.Context) (int, error) {
	counts, err := m.repo.CountByStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return counts[StatusPending], nil
}

// Stats возвращает счетчики очереди; состояние не меняется
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	counts, err := m.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count queue: %w", err)
	}

	pending, err := m.repo.ListQueueItems(ctx, StatusPending)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list pending items: %w", err)
	}

	st := Stats{
		Pending:        counts[StatusPending],
		Syncing:        counts[StatusSyncing],
		Synced:         counts[StatusSynced],
		Failed:         counts[StatusFailed],
		PendingByTable: make(map[entity.Kind]int),
	}
	st.Total = st.Pending + st.Syncing + st.Synced + st.Failed
	for _, it := range pending {
		st.PendingByTable[it.Table]++
	}

	return st, nil
}

// Draining сообщает, идет ли сейчас прогон очереди
func (m *Manager) Draining() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draining
}

// Drain прогоняет очередь: failed элементы и элементы, оставшиеся в syncing после
// прерванного прогона, возвращаются в pending, затем все pending обрабатываются
// строго по одному в порядке вставки. Ошибка элемента не останавливает прогон.
// Одновременно выполняется не более одного прогона.
func (m *Manager) Drain(ctx context.Context) (reconcile.Result, error) {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return reconcile.Result{}, ErrAlreadySyncing
	}
	m.draining = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.draining = false
		m.mu.Unlock()
	}()

	res := reconcile.Result{Errors: []string{}}

	reset, err := m.repo.ResetUnfinished(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to reset unfinished items: %w", err)
	}
	if reset > 0 {
		m.log.Info("unfinished items returned to pending", slog.Int("count", reset))
	}

	items, err := m.repo.ListQueueItems(ctx, StatusPending)
	if err != nil {
		return res, fmt.Errorf("failed to list pending items: %w", err)
	}

	start := m.now()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		label, err := m.process(ctx, item)
		res.Add(label, err)
	}

	m.log.Info("queue drained",
		slog.Int("synced", res.Synced),
		slog.Int("failed", res.Failed),
		slog.Duration("took", m.now().Sub(start)))

	return res, nil
}

func (m *Manager) process(ctx context.Context, item *Item) (string, error) {
	label := fmt.Sprintf("%s %s", item.Table, item.ID)

	if err := m.repo.UpdateQueueStatus(ctx, item.ID, StatusSyncing, ""); err != nil {
		return label, fmt.Errorf("failed to mark item syncing: %w", err)
	}

	mutation, err := reconcile.NewMutation(item.Operation, item.Table, item.Data)
	if err != nil {
		return label, m.fail(context.WithoutCancel(ctx), item, err)
	}
	label = reconcile.Describe(mutation)

	saved, err := m.applier.Apply(ctx, mutation)

	// итог элемента записывается даже после отмены ctx, иначе он застрянет в syncing
	persist := context.WithoutCancel(ctx)
	if err != nil {
		return label, m.fail(persist, item, err)
	}

	m.mirrorSaved(persist, mutation, saved)

	if err := m.repo.UpdateQueueStatus(persist, item.ID, StatusSynced, ""); err != nil {
		return label, fmt.Errorf("failed to mark item synced: %w", err)
	}
	return label, nil
}

func (m *Manager) fail(ctx context.Context, item *Item, cause error) error {
	if err := m.repo.UpdateQueueStatus(ctx, item.ID, StatusFailed, cause.Error()); err != nil {
		m.log.Error("failed to mark item failed",
			slog.String("id", item.ID),
			slog.String("error", err.Error()))
	}
	m.log.Warn("sync item failed",
		slog.String("id", item.ID),
		slog.String("table", string(item.Table)),
		slog.String("error", cause.Error()))
	return cause
}

// mirrorSaved возвращает серверную версию в локальное хранилище. Если сервер
// сохранил запись под другим id, локальная копия перекладывается под новый ключ,
// а тесты точки начинают ссылаться на серверный id.
func (m *Manager) mirrorSaved(ctx context.Context, mutation reconcile.Mutation, saved entity.Entity) {
	if m.mirror == nil || saved == nil || mutation.Op() == reconcile.OpDelete {
		return
	}

	localID := mutation.ID()
	if localID != "" && localID != saved.EntityID() {
		if err := m.mirror.Delete(ctx, mutation.Kind(), localID); err != nil {
			m.log.Warn("failed to drop re-keyed local copy",
				slog.String("id", localID),
				slog.String("error", err.Error()))
		}
		if mutation.Kind() == entity.KindAnchorPoint {
			if _, err := m.mirror.RepointTests(ctx, localID, saved.EntityID()); err != nil {
				m.log.Warn("failed to move local tests to re-keyed point",
					slog.String("id", localID),
					slog.String("error", err.Error()))
			}
		}
	}

	if err := m.mirror.Put(ctx, saved); err != nil {
		m.log.Warn("failed to mirror synced entity",
			slog.String("id", saved.EntityID()),
			slog.String("error", err.Error()))
	}
}
