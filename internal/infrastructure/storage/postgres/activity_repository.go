package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"anchorview/internal/domain/activity"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

func NewActivityRepository(storage *Storage, log *slog.Logger) *ActivityRepository {
	return &ActivityRepository{
		storage: storage,
		log:     log,
	}
}

type ActivityRepository struct {
	storage *Storage
	log     *slog.Logger
}

func (r *ActivityRepository) Record(ctx context.Context, e activity.Entry) error {
	args, err := activityArgs(uuid.NewString(), e)
	if err != nil {
		return err
	}

	_, err = r.storage.pool.Exec(ctx,
		`INSERT INTO activity_log (id, company_id, user_email, activity_type, description, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		args...)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func activityArgs(id string, e activity.Entry) ([]any, error) {
	meta := []byte("{}")
	if e.Metadata != nil {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return nil, fmt.Errorf("marshal activity metadata: %w", err)
		}
	}
	return []any{id, e.CompanyID, e.UserEmail, string(e.Type), e.Description, meta, e.CreatedAt}, nil
}
