// Package hybrid - единая точка доступа к данным для приложения: читает из
// локального хранилища, пишет в него и в очередь, запускает синхронизацию.
package hybrid

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"anchorview/internal/app/client/proxy"
	"anchorview/internal/app/client/store"
	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/queue"
	"anchorview/internal/domain/reconcile"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const defaultSyncDelay = 2 * time.Second

// Config настройки менеджера
type Config struct {
	// SyncDelay задержка автоматической синхронизации после запуска или появления сети
	SyncDelay time.Duration
	UserID    string
	CompanyID string
}

// SyncOutcome итог ручной или автоматической синхронизации
type SyncOutcome struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Status текущее состояние синхронизации
type Status struct {
	Online   bool        `json:"online"`
	Syncing  bool        `json:"syncing"`
	Degraded bool        `json:"degraded"`
	LastSync time.Time   `json:"lastSync,omitempty"`
	Queue    queue.Stats `json:"queue"`
}

// Manager гибридный менеджер данных
type Manager struct {
	store  LocalStore
	queue  SyncQueue
	direct Applier
	remote RemoteLister
	conn   Connectivity
	notify Notifier
	cfg    Config
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	syncing  bool
	timer    *time.Timer
	lastSync time.Time
}

// NewManager создает менеджер. Без локального хранилища менеджер работает
// в деградированном режиме, о чем один раз пишется предупреждение.
func NewManager(d Deps, cfg Config, log *slog.Logger) *Manager {
	if cfg.SyncDelay <= 0 {
		cfg.SyncDelay = defaultSyncDelay
	}

	m := &Manager{
		store:  d.Store,
		queue:  d.Queue,
		direct: d.Direct,
		remote: d.Remote,
		conn:   d.Conn,
		notify: d.Notify,
		cfg:    cfg,
		log:    log.With(slog.String("component", "hybrid")),
		now:    time.Now,
	}

	if m.Degraded() {
		m.log.Warn("local store unavailable, every write requires network")
	}
	return m
}

// Degraded сообщает, что локальное хранилище недоступно
func (m *Manager) Degraded() bool {
	return m.store == nil || m.queue == nil
}

func (m *Manager) online() bool {
	return m.conn == nil || m.conn.Online()
}

// Read читает из локального хранилища и никогда не ждет сеть.
// В деградированном режиме читает с сервера.
func (m *Manager) Read(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownKind, kind)
	}
	if m.Degraded() {
		if !m.online() || m.remote == nil {
			return nil, ErrStoreUnavailable
		}
		return m.remote.List(ctx, kind, f)
	}
	return m.store.List(ctx, kind, f)
}

// Get читает одну сущность из локального хранилища
func (m *Manager) Get(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	if m.Degraded() {
		return nil, ErrStoreUnavailable
	}
	return m.store.Get(ctx, kind, id)
}

// Write сохраняет сущность локально и ставит изменение в очередь. Новой сущности
// назначается id; create или update выбирается по наличию локальной копии.
func (m *Manager) Write(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	op, err := m.prepare(ctx, e)
	if err != nil {
		return nil, err
	}

	if v, ok := e.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	if m.Degraded() {
		return m.applyDirect(ctx, reconcile.Wrap(op, e))
	}

	if err := m.store.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("ошибка локальной записи: %w", err)
	}
	if _, err := m.queue.Enqueue(ctx, op, e.EntityKind(), e); err != nil {
		return nil, err
	}

	return e, nil
}

// Delete удаляет сущность локально и ставит удаление в очередь
func (m *Manager) Delete(ctx context.Context, kind entity.Kind, id string) error {
	stub, err := entity.New(kind)
	if err != nil {
		return err
	}
	stub.SetEntityID(id)

	if m.Degraded() {
		_, err := m.applyDirect(ctx, reconcile.Wrap(reconcile.OpDelete, stub))
		return err
	}

	if err := m.store.Delete(ctx, kind, id); err != nil {
		return err
	}
	_, err = m.queue.Enqueue(ctx, reconcile.OpDelete, kind, stub)
	return err
}

// AddPhoto сохраняет снятое фото как data URL и ставит загрузку в очередь
func (m *Manager) AddPhoto(ctx context.Context, name string, data []byte) (*entity.File, error) {
	if len(data) == 0 {
		return nil, entity.ErrEmptyFile
	}

	mime := http.DetectContentType(data)
	f := &entity.File{
		OriginalName: filepath.Base(name),
		MimeType:     mime,
		Size:         int64(len(data)),
		URL:          "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	if f.OriginalName == "." || f.OriginalName == string(filepath.Separator) {
		f.OriginalName = ""
	}

	saved, err := m.Write(ctx, f)
	if err != nil {
		return nil, err
	}
	return saved.(*entity.File), nil
}

// Archive архивирует (archived=true) или восстанавливает точку
func (m *Manager) Archive(ctx context.Context, pointID string, archived bool) (*entity.AnchorPoint, error) {
	e, err := m.Get(ctx, entity.KindAnchorPoint, pointID)
	if err != nil {
		return nil, err
	}
	point := e.(*entity.AnchorPoint)

	if archived {
		point.Archive(m.now().UTC())
	} else {
		point.Unarchive()
	}

	if _, err := m.Write(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}

// RecordTest сохраняет тест и переносит его результат (и номер пломбы, если задан)
// в локальную копию точки
func (m *Manager) RecordTest(ctx context.Context, test *entity.AnchorTest, numeroLacre string) (*entity.AnchorTest, error) {
	if _, err := m.Write(ctx, test); err != nil {
		return nil, err
	}
	if m.Degraded() {
		// сервер сам обновил статус точки при сверке теста
		return test, nil
	}

	e, err := m.store.Get(ctx, entity.KindAnchorPoint, test.PontoID)
	if errors.Is(err, store.ErrNotFound) {
		return test, nil
	}
	if err != nil {
		return nil, err
	}

	point := e.(*entity.AnchorPoint)
	point.Status = test.Resultado
	if numeroLacre != "" {
		point.NumeroLacre = numeroLacre
	}
	if _, err := m.Write(ctx, point); err != nil {
		return nil, err
	}

	return test, nil
}

// prepare заполняет служебные поля и выбирает операцию
func (m *Manager) prepare(ctx context.Context, e entity.Entity) (reconcile.Operation, error) {
	op := reconcile.OpUpdate
	if e.EntityID() == "" {
		e.SetEntityID(uuid.NewString())
		op = reconcile.OpCreate
	} else if !m.Degraded() {
		_, err := m.store.Get(ctx, e.EntityKind(), e.EntityID())
		switch {
		case errors.Is(err, store.ErrNotFound):
			op = reconcile.OpCreate
		case err != nil:
			return "", err
		}
	}

	now := m.now().UTC()
	switch v := e.(type) {
	case *entity.AnchorPoint:
		if v.DataHora.IsZero() {
			v.DataHora = now
		}
		if v.Status == "" {
			v.Status = entity.StatusNotTested
		}
		if op == reconcile.OpCreate && v.CreatedByUserID == "" {
			v.CreatedByUserID = m.cfg.UserID
		}
		if m.cfg.UserID != "" {
			v.LastModifiedByUserID = m.cfg.UserID
		}
	case *entity.AnchorTest:
		if v.DataHora.IsZero() {
			v.DataHora = now
		}
		if v.CreatedByUserID == "" {
			v.CreatedByUserID = m.cfg.UserID
		}
	case *entity.Project:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
		if v.CompanyID == "" {
			v.CompanyID = m.cfg.CompanyID
		}
	case *entity.FloorPlan:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *entity.Location:
		if v.CompanyID == "" {
			v.CompanyID = m.cfg.CompanyID
		}
	case *entity.File:
		v.FillDefaults(now)
		v.Uploaded = false
		if v.CompanyID == "" {
			v.CompanyID = m.cfg.CompanyID
		}
		if v.UserID == "" {
			v.UserID = m.cfg.UserID
		}
	}

	return op, nil
}

func (m *Manager) applyDirect(ctx context.Context, mut reconcile.Mutation) (entity.Entity, error) {
	if !m.online() || m.direct == nil {
		return nil, ErrOffline
	}
	return m.direct.Apply(ctx, mut)
}

// ManualSync прогоняет очередь. Без сети возвращает "no connection", не трогая очередь;
// при уже идущем прогоне возвращает "already syncing".
func (m *Manager) ManualSync(ctx context.Context) SyncOutcome {
	if !m.online() {
		return SyncOutcome{Success: false, Message: ErrOffline.Error()}
	}
	if m.Degraded() {
		return SyncOutcome{Success: true, Message: "nothing to sync: " + ErrStoreUnavailable.Error()}
	}

	m.mu.Lock()
	if m.syncing {
		m.mu.Unlock()
		return SyncOutcome{Success: false, Message: queue.ErrAlreadySyncing.Error()}
	}
	m.syncing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.syncing = false
		m.mu.Unlock()
	}()

	res, err := m.queue.Drain(ctx)
	if errors.Is(err, queue.ErrAlreadySyncing) {
		return SyncOutcome{Success: false, Message: err.Error()}
	}
	if err != nil {
		m.log.Error("sync failed", slog.String("error", err.Error()))
		m.publish(proxy.EventSyncFailed, map[string]string{"error": err.Error()})
		return SyncOutcome{
			Success: false,
			Message: err.Error(),
			Synced:  res.Synced,
			Failed:  res.Failed,
			Errors:  res.Errors,
		}
	}

	m.mu.Lock()
	m.lastSync = m.now()
	m.mu.Unlock()

	m.publish(proxy.EventSyncCompleted, map[string]int{"synced": res.Synced, "failed": res.Failed})

	return SyncOutcome{
		Success: res.Failed == 0,
		Message: fmt.Sprintf("%d synced, %d failed", res.Synced, res.Failed),
		Synced:  res.Synced,
		Failed:  res.Failed,
		Errors:  res.Errors,
	}
}

func (m *Manager) publish(eventType string, data any) {
	if m.notify != nil {
		m.notify.Publish(eventType, data)
	}
}

// Start планирует отложенную синхронизацию, если есть сеть и очередь не пуста
func (m *Manager) Start(ctx context.Context) {
	if m.Degraded() || !m.online() {
		return
	}

	pending, err := m.queue.PendingCount(ctx)
	if err != nil {
		m.log.Warn("failed to read pending count", slog.String("error", err.Error()))
		return
	}
	if pending > 0 {
		m.log.Info("pending changes found, scheduling sync", slog.Int("pending", pending))
		m.scheduleSync(ctx)
	}
}

// ConnectivityRestored планирует отложенную синхронизацию после появления сети
func (m *Manager) ConnectivityRestored(ctx context.Context) {
	if m.Degraded() {
		return
	}
	m.log.Info("connectivity restored, scheduling sync")
	m.scheduleSync(ctx)
}

// scheduleSync откладывает прогон на SyncDelay; повторные вызовы до срабатывания
// таймера объединяются в один прогон
func (m *Manager) scheduleSync(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		return
	}
	m.timer = time.AfterFunc(m.cfg.SyncDelay, func() {
		m.mu.Lock()
		m.timer = nil
		m.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		out := m.ManualSync(ctx)
		m.log.Info("automatic sync finished",
			slog.Bool("success", out.Success),
			slog.String("message", out.Message))
	})
}

// Stop отменяет запланированную синхронизацию
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Status возвращает состояние синхронизации
func (m *Manager) Status(ctx context.Context) (Status, error) {
	m.mu.Lock()
	st := Status{
		Online:   m.online(),
		Syncing:  m.syncing,
		Degraded: m.Degraded(),
		LastSync: m.lastSync,
	}
	m.mu.Unlock()

	if st.Degraded {
		return st, nil
	}

	qs, err := m.queue.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Queue = qs
	return st, nil
}
