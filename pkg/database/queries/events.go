package queries

import (
	"context"
	"database/sql"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO engine_events (id, event_type, severity, model_name, asset_id, run_id, time, message, trace_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Type, e.Severity, e.ModelName, e.AssetID, e.RunID, e.Timestamp, e.Message, e.TraceID)
	return err
}

func (r *EventRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	query := `
		SELECT id, event_type, severity, model_name, asset_id, run_id, time, message, trace_id
		FROM engine_events
		ORDER BY time DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Severity, &e.ModelName, &e.AssetID, &e.RunID,
			&e.Timestamp, &e.Message, &e.TraceID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
