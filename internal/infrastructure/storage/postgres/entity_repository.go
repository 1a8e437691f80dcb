package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

// EntityRepository хранит все типы сущностей в одной таблице: payload в jsonb,
// поля выборки (компания, проект, родитель, номер точки) в отдельных колонках
type EntityRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewEntityRepository(storage *Storage, log *slog.Logger) *EntityRepository {
	return &EntityRepository{
		storage: storage,
		log:     log.With(slog.String("component", "entity_repository")),
	}
}

// row колонки таблицы entities, вычисленные из сущности
type row struct {
	kind        entity.Kind
	id          string
	companyID   string
	projectID   string
	parentID    string
	numeroPonto *int
	archived    bool
	data        []byte
}

func toRow(e entity.Entity) (row, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return row{}, fmt.Errorf("marshal %s: %w", e.EntityKind(), err)
	}

	scope := e.Scope()
	r := row{
		kind:      e.EntityKind(),
		id:        e.EntityID(),
		companyID: scope.CompanyID,
		projectID: scope.ProjectID,
		parentID:  scope.ParentID,
		archived:  entity.IsArchived(e),
		data:      data,
	}
	if p, ok := e.(*entity.AnchorPoint); ok {
		n := p.NumeroPonto
		r.numeroPonto = &n
	}
	return r, nil
}

func (r *EntityRepository) Find(ctx context.Context, kind entity.Kind, m reconcile.Matcher) (entity.Entity, error) {
	query, args := buildFindQuery(kind, m)

	var data []byte
	err := r.storage.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reconcile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return entity.Decode(kind, data)
}

func (r *EntityRepository) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	if e.EntityID() == "" {
		e.SetEntityID(uuid.NewString())
	}
	rw, err := toRow(e)
	if err != nil {
		return nil, err
	}

	_, err = r.storage.pool.Exec(ctx,
		`INSERT INTO entities (kind, id, company_id, project_id, parent_id, numero_ponto, archived, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(rw.kind), rw.id, rw.companyID, rw.projectID, rw.parentID, rw.numeroPonto, rw.archived, rw.data)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("duplicate %s id %s", rw.kind, rw.id)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rw.kind, err)
	}

	r.log.Debug("entity created", slog.String("kind", string(rw.kind)), slog.String("id", rw.id))
	return entity.Decode(rw.kind, rw.data)
}

func (r *EntityRepository) Update(ctx context.Context, id string, e entity.Entity) (entity.Entity, error) {
	e.SetEntityID(id)
	rw, err := toRow(e)
	if err != nil {
		return nil, err
	}

	tag, err := r.storage.pool.Exec(ctx,
		`UPDATE entities
		 SET company_id = $3, project_id = $4, parent_id = $5, numero_ponto = $6,
		     archived = $7, data = $8, updated_at = NOW()
		 WHERE kind = $1 AND id = $2`,
		string(rw.kind), rw.id, rw.companyID, rw.projectID, rw.parentID, rw.numeroPonto, rw.archived, rw.data)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", rw.kind, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, reconcile.ErrNotFound
	}
	return entity.Decode(rw.kind, rw.data)
}

func (r *EntityRepository) Delete(ctx context.Context, kind entity.Kind, id string) error {
	tag, err := r.storage.pool.Exec(ctx,
		`DELETE FROM entities WHERE kind = $1 AND id = $2`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return reconcile.ErrNotFound
	}
	return nil
}

func (r *EntityRepository) List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	query, args := buildListQuery(kind, f)

	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	list := make([]entity.Entity, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		e, err := entity.Decode(kind, data)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return list, nil
}

// CountModifiedSince число записей компании типа kind, измененных после since
func (r *EntityRepository) CountModifiedSince(ctx context.Context, kind entity.Kind, companyID string, since time.Time) (int, error) {
	query, args := buildCountQuery(kind, companyID, since)

	var n int
	if err := r.storage.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// buildCountQuery: точка принадлежит компании через проект, тест через точку
// и проект, остальные записи хранят компанию в своей колонке
func buildCountQuery(kind entity.Kind, companyID string, since time.Time) (string, []any) {
	args := []any{since, companyID}
	switch kind {
	case entity.KindAnchorPoint, entity.KindFloorPlan:
		return `SELECT COUNT(*) FROM entities e
			JOIN entities pr ON pr.kind = 'projects' AND pr.id = e.project_id
			WHERE e.kind = $3 AND e.updated_at > $1 AND pr.company_id = $2`,
			append(args, string(kind))
	case entity.KindAnchorTest:
		return `SELECT COUNT(*) FROM entities e
			JOIN entities p ON p.kind = 'anchor_points' AND p.id = e.parent_id
			JOIN entities pr ON pr.kind = 'projects' AND pr.id = p.project_id
			WHERE e.kind = $3 AND e.updated_at > $1 AND pr.company_id = $2`,
			append(args, string(kind))
	default:
		return `SELECT COUNT(*) FROM entities e
			WHERE e.kind = $3 AND e.updated_at > $1 AND e.company_id = $2`,
			append(args, string(kind))
	}
}

// buildFindQuery ищет по id либо, для точек, по (project_id, numero_ponto).
// Совпадение по id сортируется первым.
func buildFindQuery(kind entity.Kind, m reconcile.Matcher) (string, []any) {
	if kind != entity.KindAnchorPoint || !m.HasNaturalKey() {
		return `SELECT data FROM entities WHERE kind = $1 AND id = $2`,
			[]any{string(kind), m.ID}
	}
	return `SELECT data FROM entities
		WHERE kind = $1 AND (id = $2 OR (project_id = $3 AND numero_ponto = $4))
		ORDER BY (id = $2) DESC, created_at, id
		LIMIT 1`,
		[]any{string(kind), m.ID, m.ProjectID, *m.NumeroPonto}
}

func buildListQuery(kind entity.Kind, f entity.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT data FROM entities WHERE kind = $1")
	args := []any{string(kind)}

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		sb.WriteString(" AND " + column + " = $" + strconv.Itoa(len(args)))
	}
	add("company_id", f.CompanyID)
	add("project_id", f.ProjectID)
	add("parent_id", f.ParentID)

	if !f.IncludeArchived {
		sb.WriteString(" AND NOT archived")
	}
	sb.WriteString(" ORDER BY created_at, id")

	return sb.String(), args
}
