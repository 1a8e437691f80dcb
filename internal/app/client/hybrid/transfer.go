package hybrid

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/queue"
	"anchorview/internal/domain/reconcile"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const backupVersion = 1

// Backup документ резервной копии: массивы по каждой таблице и очередь синхронизации
type Backup struct {
	Version     int                   `json:"version"`
	ExportedAt  time.Time             `json:"exportedAt"`
	Companies   []*entity.Company     `json:"companies"`
	Users       []*entity.User        `json:"users"`
	Projects    []*entity.Project     `json:"projects"`
	Locations   []*entity.Location    `json:"locations"`
	FloorPlans  []*entity.FloorPlan   `json:"floorPlans"`
	AnchorPoint []*entity.AnchorPoint `json:"anchorPoints"`
	AnchorTests []*entity.AnchorTest  `json:"anchorTests"`
	Files       []*entity.File        `json:"files"`
	SyncQueue   []*queue.Item         `json:"syncQueue"`
}

// entities перечисляет сущности копии в порядке зависимостей
func (b *Backup) entities() []entity.Entity {
	var out []entity.Entity
	for _, v := range b.Companies {
		out = append(out, v)
	}
	for _, v := range b.Users {
		out = append(out, v)
	}
	for _, v := range b.Projects {
		out = append(out, v)
	}
	for _, v := range b.Locations {
		out = append(out, v)
	}
	for _, v := range b.FloorPlans {
		out = append(out, v)
	}
	for _, v := range b.AnchorPoint {
		out = append(out, v)
	}
	for _, v := range b.AnchorTests {
		out = append(out, v)
	}
	for _, v := range b.Files {
		out = append(out, v)
	}
	return out
}

func (b *Backup) add(e entity.Entity) {
	switch v := e.(type) {
	case *entity.Company:
		b.Companies = append(b.Companies, v)
	case *entity.User:
		b.Users = append(b.Users, v)
	case *entity.Project:
		b.Projects = append(b.Projects, v)
	case *entity.Location:
		b.Locations = append(b.Locations, v)
	case *entity.FloorPlan:
		b.FloorPlans = append(b.FloorPlans, v)
	case *entity.AnchorPoint:
		b.AnchorPoint = append(b.AnchorPoint, v)
	case *entity.AnchorTest:
		b.AnchorTests = append(b.AnchorTests, v)
	case *entity.File:
		b.Files = append(b.Files, v)
	}
}

func newBackup(at time.Time) *Backup {
	return &Backup{
		Version:     backupVersion,
		ExportedAt:  at,
		Companies:   []*entity.Company{},
		Users:       []*entity.User{},
		Projects:    []*entity.Project{},
		Locations:   []*entity.Location{},
		FloorPlans:  []*entity.FloorPlan{},
		AnchorPoint: []*entity.AnchorPoint{},
		AnchorTests: []*entity.AnchorTest{},
		Files:       []*entity.File{},
		SyncQueue:   []*queue.Item{},
	}
}

// ExportOfflineData сериализует все содержимое локального хранилища в один JSON-документ
func (m *Manager) ExportOfflineData(ctx context.Context) ([]byte, error) {
	if m.Degraded() {
		return nil, ErrStoreUnavailable
	}

	dump, err := m.store.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка выгрузки хранилища: %w", err)
	}

	b := newBackup(m.now().UTC())
	for _, kind := range entity.Kinds {
		for _, e := range dump[kind] {
			b.add(e)
		}
	}

	items, err := m.store.ListQueueItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	if items != nil {
		b.SyncQueue = items
	}

	return json.MarshalIndent(b, "", "  ")
}

// Import записывает сущности резервной копии в локальное хранилище и
// восстанавливает неотправленные элементы ее очереди в исходном порядке.
// Копия без очереди ставит каждую сущность в очередь как обновление,
// чтобы следующий прогон сверил ее с сервером.
func (m *Manager) Import(ctx context.Context, data []byte) (int, error) {
	if m.Degraded() {
		return 0, ErrStoreUnavailable
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return 0, fmt.Errorf("ошибка разбора резервной копии: %w", err)
	}

	var n int
	for _, e := range b.entities() {
		if e.EntityID() == "" {
			continue
		}
		if err := m.store.Put(ctx, e); err != nil {
			return n, err
		}
		if len(b.SyncQueue) == 0 {
			if _, err := m.queue.Enqueue(ctx, reconcile.OpUpdate, e.EntityKind(), e); err != nil {
				return n, err
			}
		}
		n++
	}

	restored, err := m.restoreQueue(ctx, b.SyncQueue)
	if err != nil {
		return n, err
	}

	m.log.Info("backup imported",
		slog.Int("entities", n),
		slog.Int("queue_items", restored))
	return n, nil
}

// restoreQueue ставит в очередь неотправленные элементы копии. Порядок
// восстанавливается по seq, операции сохраняются как есть.
func (m *Manager) restoreQueue(ctx context.Context, items []*queue.Item) (int, error) {
	unsent := make([]*queue.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Status == queue.StatusSynced {
			continue
		}
		unsent = append(unsent, it)
	}
	sort.SliceStable(unsent, func(i, j int) bool {
		if unsent[i].Seq != unsent[j].Seq {
			return unsent[i].Seq < unsent[j].Seq
		}
		return unsent[i].CreatedAt.Before(unsent[j].CreatedAt)
	})

	for i, it := range unsent {
		if _, err := m.queue.Enqueue(ctx, it.Operation, it.Table, it.Data); err != nil {
			return i, fmt.Errorf("ошибка восстановления очереди: %w", err)
		}
	}
	return len(unsent), nil
}

// PullResult количество загруженных сущностей по типам
type PullResult map[entity.Kind]int

// Pull загружает с сервера данные компании (и проекта, если задан) для работы
// без сети. Запросы выполняются параллельно. Сущности с неотправленными локальными
// изменениями не перезаписываются.
func (m *Manager) Pull(ctx context.Context, companyID, projectID string) (PullResult, error) {
	if m.Degraded() {
		return nil, ErrStoreUnavailable
	}
	if !m.online() || m.remote == nil {
		return nil, ErrOffline
	}

	var (
		mu      sync.Mutex
		fetched []entity.Entity
	)
	collect := func(list []entity.Entity) {
		mu.Lock()
		fetched = append(fetched, list...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(kind entity.Kind, f entity.Filter) {
		g.Go(func() error {
			list, err := m.remote.List(gctx, kind, f)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", kind, err)
			}
			collect(list)
			return nil
		})
	}

	byCompany := entity.Filter{CompanyID: companyID, IncludeArchived: true}
	fetch(entity.KindCompany, byCompany)
	fetch(entity.KindUser, byCompany)
	fetch(entity.KindProject, byCompany)
	fetch(entity.KindLocation, byCompany)

	if projectID != "" {
		byProject := entity.Filter{ProjectID: projectID, IncludeArchived: true}
		fetch(entity.KindFloorPlan, byProject)

		g.Go(func() error {
			points, err := m.remote.List(gctx, entity.KindAnchorPoint, byProject)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", entity.KindAnchorPoint, err)
			}
			collect(points)

			tg, tctx := errgroup.WithContext(gctx)
			tg.SetLimit(4)
			for _, p := range points {
				pointID := p.EntityID()
				tg.Go(func() error {
					tests, err := m.remote.List(tctx, entity.KindAnchorTest, entity.Filter{ParentID: pointID})
					if err != nil {
						return fmt.Errorf("fetch tests of %s: %w", pointID, err)
					}
					collect(tests)
					return nil
				})
			}
			return tg.Wait()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dirty, err := m.pendingIDs(ctx)
	if err != nil {
		return nil, err
	}

	res := make(PullResult)
	for _, e := range fetched {
		if dirty[e.EntityKind()][e.EntityID()] {
			continue
		}
		if err := m.store.Put(ctx, e); err != nil {
			return res, err
		}
		res[e.EntityKind()]++
	}

	m.log.Info("offline data pulled",
		slog.String("company_id", companyID),
		slog.String("project_id", projectID),
		slog.Int("entities", len(fetched)))

	return res, nil
}

// pendingIDs id сущностей, у которых есть неотправленные изменения
func (m *Manager) pendingIDs(ctx context.Context) (map[entity.Kind]map[string]bool, error) {
	items, err := m.store.ListQueueItems(ctx, queue.StatusPending, queue.StatusFailed, queue.StatusSyncing)
	if err != nil {
		return nil, err
	}

	out := make(map[entity.Kind]map[string]bool)
	for _, it := range items {
		e, err := entity.Decode(it.Table, it.Data)
		if err != nil {
			continue
		}
		if out[it.Table] == nil {
			out[it.Table] = make(map[string]bool)
		}
		out[it.Table][e.EntityID()] = true
	}
	return out, nil
}
