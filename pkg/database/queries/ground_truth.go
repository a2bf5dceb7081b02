package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type GroundTruthRepository struct {
	db *sql.DB
}

func NewGroundTruthRepository(db *sql.DB) *GroundTruthRepository {
	return &GroundTruthRepository{db: db}
}

// Labels fetches labels whose range intersects [from, to), grouped by
// asset. A label straddling the window edge still counts.
func (r *GroundTruthRepository) Labels(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.GroundTruthLabel, error) {
	query := `
		SELECT asset_id, range_start, range_end, is_true_anomaly, source
		FROM ground_truth_labels
		WHERE asset_id = ANY($1) AND range_end > $2 AND range_start < $3
		ORDER BY asset_id, range_start`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assetIDs), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.GroundTruthLabel, len(assetIDs))
	for rows.Next() {
		var l models.GroundTruthLabel
		if err := rows.Scan(&l.AssetID, &l.Start, &l.End, &l.IsTrueAnomaly, &l.Source); err != nil {
			return nil, err
		}
		out[l.AssetID] = append(out[l.AssetID], l)
	}

	return out, rows.Err()
}

func (r *GroundTruthRepository) InsertBatch(ctx context.Context, labels []models.GroundTruthLabel) error {
	if len(labels) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ground_truth_labels (asset_id, range_start, range_end, is_true_anomaly, source)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range labels {
		if _, err := stmt.ExecContext(ctx, l.AssetID, l.Start, l.End, l.IsTrueAnomaly, l.Source); err != nil {
			return err
		}
	}

	return tx.Commit()
}
