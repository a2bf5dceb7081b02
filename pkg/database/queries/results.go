package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

var ErrRunNotFound = errors.New("run not found")

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateRun records the run row before the pipeline starts, so a crash
// mid-run leaves a visible "running" row rather than nothing.
func (r *ResultRepository) CreateRun(ctx context.Context, run *models.EngineRun) error {
	query := `
		INSERT INTO engine_runs (id, model_name, window_start, window_end, status, started_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.ModelName, run.WindowStart, run.WindowEnd, run.Status, run.StartedAt, run.Error)
	return err
}

func (r *ResultRepository) FinishRun(ctx context.Context, runID string, status models.RunStatus, runErr string) error {
	query := `UPDATE engine_runs SET status = $2, completed_at = NOW(), error = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, runID, status, runErr)
	return err
}

// SaveReport writes every output of a run in one transaction. Inserts
// only; a failed transaction leaves no partial run visible.
func (r *ResultRepository) SaveReport(ctx context.Context, report *models.RunReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEpisodes(ctx, tx, report.Run.ID, report.Episodes); err != nil {
		return err
	}
	if err := insertOutcomes(ctx, tx, report.Run.ID, report.Outcomes); err != nil {
		return err
	}
	if err := insertValues(ctx, tx, report.Run.ID, report.Values); err != nil {
		return err
	}
	if err := insertRollups(ctx, tx, report.Run.ID, report.Rollups); err != nil {
		return err
	}
	if report.Curve != nil {
		if err := insertCurve(ctx, tx, report.Run.ID, report.Curve); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertEpisodes(ctx context.Context, tx *sql.Tx, runID string, episodes []models.AnomalyEpisode) error {
	if len(episodes) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomaly_episodes (id, run_id, asset_id, model_name, zone_key, episode_start, episode_end,
			observation_count, mean_speed_mph, mean_engine_load, fuel_waste_gal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range episodes {
		if _, err := stmt.ExecContext(ctx, e.ID, runID, e.AssetID, e.ModelName, e.ZoneKey,
			e.Start, e.End, e.ObservationCount, e.MeanSpeedMPH, e.MeanEngineLoad, e.FuelWasteGal); err != nil {
			return err
		}
	}
	return nil
}

func insertOutcomes(ctx context.Context, tx *sql.Tx, runID string, results []models.ReconciliationResult) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcome_records (run_id, model_name, bucket_start, bucket_size, scope_level, scope_id, category, count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		for _, rec := range res.Records {
			if _, err := stmt.ExecContext(ctx, runID, rec.ModelName,
				rec.Bucket.Start, int64(rec.Bucket.Size), rec.Scope.Level, rec.Scope.ID,
				rec.Category, rec.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertValues(ctx context.Context, tx *sql.Tx, runID string, values []models.AttributedValue) error {
	if len(values) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attributed_values (run_id, model_name, bucket_start, bucket_size, scope_level, scope_id, category, cost_category, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, runID, v.ModelName,
			v.Bucket.Start, int64(v.Bucket.Size), v.Scope.Level, v.Scope.ID,
			v.Category, v.CostCategory, v.Amount); err != nil {
			return err
		}
	}
	return nil
}

func insertRollups(ctx context.Context, tx *sql.Tx, runID string, rollups []models.RollupSummary) error {
	if len(rollups) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rollup_summaries (run_id, model_name, scope_level, scope_id, bucket_start, bucket_size,
			true_positives, false_positives, false_negatives, true_negatives, dollar_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range rollups {
		if _, err := stmt.ExecContext(ctx, runID, s.ModelName, s.Level, s.ScopeID,
			s.Bucket.Start, int64(s.Bucket.Size),
			s.Counts.TruePositives, s.Counts.FalsePositives, s.Counts.FalseNegatives, s.Counts.TrueNegatives,
			s.DollarValue); err != nil {
			return err
		}
	}
	return nil
}

func insertCurve(ctx context.Context, tx *sql.Tx, runID string, curve *models.ProfitCurve) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profit_curve_points (run_id, model_name, scope_level, scope_id, threshold,
			true_positives, false_positives, false_negatives, tp_rate, fp_rate, net_daily_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range curve.Points {
		if _, err := stmt.ExecContext(ctx, runID, p.ModelName, p.Scope.Level, p.Scope.ID, p.Threshold,
			p.TruePositives, p.FalsePositive, p.FalseNegative, p.TPRate, p.FPRate, p.NetDailyValue); err != nil {
			return err
		}
	}
	return nil
}

// SetCurrentRun flips the per-model current pointer. The only
// last-writer-wins write in the schema, and it is explicit.
func (r *ResultRepository) SetCurrentRun(ctx context.Context, modelName, runID string) error {
	query := `
		INSERT INTO current_runs (model_name, run_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (model_name) DO UPDATE SET run_id = $2, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, modelName, runID)
	return err
}

func (r *ResultRepository) CurrentRunID(ctx context.Context, modelName string) (string, error) {
	var runID string
	err := r.db.QueryRowContext(ctx, `SELECT run_id FROM current_runs WHERE model_name = $1`, modelName).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

func (r *ResultRepository) GetRun(ctx context.Context, runID string) (*models.EngineRun, error) {
	query := `
		SELECT id, model_name, window_start, window_end, status, started_at, completed_at, error
		FROM engine_runs WHERE id = $1`

	var run models.EngineRun
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID, &run.ModelName, &run.WindowStart, &run.WindowEnd, &run.Status,
		&run.StartedAt, &completedAt, &run.Error)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func (r *ResultRepository) ListRuns(ctx context.Context, modelName string, limit int) ([]models.EngineRun, error) {
	query := `
		SELECT id, model_name, window_start, window_end, status, started_at, completed_at, error
		FROM engine_runs
		WHERE ($1 = '' OR model_name = $1)
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, modelName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.EngineRun
	for rows.Next() {
		var run models.EngineRun
		var completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.ModelName, &run.WindowStart, &run.WindowEnd, &run.Status,
			&run.StartedAt, &completedAt, &run.Error); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *ResultRepository) Episodes(ctx context.Context, runID string) ([]models.AnomalyEpisode, error) {
	query := `
		SELECT id, run_id, asset_id, model_name, zone_key, episode_start, episode_end,
			observation_count, mean_speed_mph, mean_engine_load, fuel_waste_gal
		FROM anomaly_episodes
		WHERE run_id = $1
		ORDER BY asset_id, episode_start`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []models.AnomalyEpisode
	for rows.Next() {
		var e models.AnomalyEpisode
		if err := rows.Scan(&e.ID, &e.RunID, &e.AssetID, &e.ModelName, &e.ZoneKey,
			&e.Start, &e.End, &e.ObservationCount, &e.MeanSpeedMPH, &e.MeanEngineLoad, &e.FuelWasteGal); err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}

	return episodes, rows.Err()
}

func (r *ResultRepository) Rollups(ctx context.Context, runID string, level models.ScopeLevel) ([]models.RollupSummary, error) {
	query := `
		SELECT model_name, scope_level, scope_id, bucket_start, bucket_size,
			true_positives, false_positives, false_negatives, true_negatives, dollar_value
		FROM rollup_summaries
		WHERE run_id = $1 AND ($2 = '' OR scope_level = $2)
		ORDER BY scope_level, scope_id, bucket_start`

	rows, err := r.db.QueryContext(ctx, query, runID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []models.RollupSummary
	for rows.Next() {
		var s models.RollupSummary
		var bucketSize int64
		if err := rows.Scan(&s.ModelName, &s.Level, &s.ScopeID, &s.Bucket.Start, &bucketSize,
			&s.Counts.TruePositives, &s.Counts.FalsePositives, &s.Counts.FalseNegatives, &s.Counts.TrueNegatives,
			&s.DollarValue); err != nil {
			return nil, err
		}
		s.Bucket.Size = time.Duration(bucketSize)
		s.RunID = runID
		rollups = append(rollups, s)
	}

	return rollups, rows.Err()
}

func (r *ResultRepository) Values(ctx context.Context, runID string) ([]models.AttributedValue, error) {
	query := `
		SELECT model_name, bucket_start, bucket_size, scope_level, scope_id, category, cost_category, amount
		FROM attributed_values
		WHERE run_id = $1
		ORDER BY scope_id, bucket_start, category`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []models.AttributedValue
	for rows.Next() {
		var v models.AttributedValue
		var bucketSize int64
		if err := rows.Scan(&v.ModelName, &v.Bucket.Start, &bucketSize, &v.Scope.Level, &v.Scope.ID,
			&v.Category, &v.CostCategory, &v.Amount); err != nil {
			return nil, err
		}
		v.Bucket.Size = time.Duration(bucketSize)
		v.RunID = runID
		values = append(values, v)
	}

	return values, rows.Err()
}

func (r *ResultRepository) Curve(ctx context.Context, runID string) (*models.ProfitCurve, error) {
	query := `
		SELECT model_name, scope_level, scope_id, threshold,
			true_positives, false_positives, false_negatives, tp_rate, fp_rate, net_daily_value
		FROM profit_curve_points
		WHERE run_id = $1
		ORDER BY threshold`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var curve models.ProfitCurve
	for rows.Next() {
		var p models.ProfitCurvePoint
		if err := rows.Scan(&p.ModelName, &p.Scope.Level, &p.Scope.ID, &p.Threshold,
			&p.TruePositives, &p.FalsePositive, &p.FalseNegative, &p.TPRate, &p.FPRate, &p.NetDailyValue); err != nil {
			return nil, err
		}
		p.RunID = runID
		curve.Points = append(curve.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(curve.Points) == 0 {
		return nil, nil
	}

	curve.ModelName = curve.Points[0].ModelName
	curve.Scope = curve.Points[0].Scope
	curve.RunID = runID
	best := curve.Points[0]
	for _, p := range curve.Points[1:] {
		if p.NetDailyValue > best.NetDailyValue {
			best = p
		}
	}
	curve.OptimalThreshold = best.Threshold
	curve.OptimalValue = best.NetDailyValue
	return &curve, nil
}
