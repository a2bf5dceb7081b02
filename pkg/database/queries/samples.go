package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type SampleRepository struct {
	db *sql.DB
}

func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// MotionSamples fetches the motion stream for a set of assets over
// [from, to), grouped by asset. One query per call, not per asset.
func (r *SampleRepository) MotionSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.MotionSample, error) {
	query := `
		SELECT asset_id, time, latitude, longitude, speed_mph, heading
		FROM motion_samples
		WHERE asset_id = ANY($1) AND time >= $2 AND time < $3
		ORDER BY asset_id, time`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assetIDs), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.MotionSample, len(assetIDs))
	for rows.Next() {
		var s models.MotionSample
		if err := rows.Scan(&s.AssetID, &s.Timestamp, &s.Latitude, &s.Longitude, &s.SpeedMPH, &s.Heading); err != nil {
			return nil, err
		}
		out[s.AssetID] = append(out[s.AssetID], s)
	}

	return out, rows.Err()
}

func (r *SampleRepository) LoadSamples(ctx context.Context, assetIDs []string, from, to time.Time) (map[string][]models.LoadSample, error) {
	query := `
		SELECT asset_id, time, engine_load_pct, fuel_rate_gph, payload_tons
		FROM load_samples
		WHERE asset_id = ANY($1) AND time >= $2 AND time < $3
		ORDER BY asset_id, time`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assetIDs), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.LoadSample, len(assetIDs))
	for rows.Next() {
		var s models.LoadSample
		if err := rows.Scan(&s.AssetID, &s.Timestamp, &s.EngineLoad, &s.FuelRateGPH, &s.PayloadTons); err != nil {
			return nil, err
		}
		out[s.AssetID] = append(out[s.AssetID], s)
	}

	return out, rows.Err()
}

// InsertMotionBatch writes motion samples in a single transaction with
// a prepared statement, for ingest and seeding.
func (r *SampleRepository) InsertMotionBatch(ctx context.Context, samples []models.MotionSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO motion_samples (asset_id, time, latitude, longitude, speed_mph, heading)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, s.AssetID, s.Timestamp, s.Latitude, s.Longitude, s.SpeedMPH, s.Heading); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SampleRepository) InsertLoadBatch(ctx context.Context, samples []models.LoadSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO load_samples (asset_id, time, engine_load_pct, fuel_rate_gph, payload_tons)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, s.AssetID, s.Timestamp, s.EngineLoad, s.FuelRateGPH, s.PayloadTons); err != nil {
			return err
		}
	}

	return tx.Commit()
}
