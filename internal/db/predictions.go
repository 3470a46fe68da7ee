package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salesforecast/internal/models"
)

// predictionColumns is the standard column list for prediction queries.
const predictionColumns = `id, model_kind, outcome, estimate, lower_bound, upper_bound,
	target_date, inputs, error_message, user_email, created_at`

// scanPrediction scans a row into a Prediction struct.
func scanPrediction(row pgx.Row) (*models.Prediction, error) {
	var p models.Prediction
	var inputs []byte
	err := row.Scan(
		&p.ID,
		&p.Model,
		&p.Outcome,
		&p.Estimate,
		&p.Lower,
		&p.Upper,
		&p.TargetDate,
		&inputs,
		&p.ErrorMessage,
		&p.UserEmail,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &p.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs of prediction %s: %w", p.ID, err)
	}
	return &p, nil
}

// InsertPrediction records a prediction. A zero ID is replaced with a new one.
func (d *DB) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	inputs, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}

	return d.Pool.QueryRow(ctx, `
		INSERT INTO predictions (id, model_kind, outcome, estimate, lower_bound, upper_bound,
			target_date, inputs, error_message, user_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, p.ID, p.Model, p.Outcome, p.Estimate, p.Lower, p.Upper,
		p.TargetDate, inputs, p.ErrorMessage, p.UserEmail,
	).Scan(&p.CreatedAt)
}

// GetPrediction returns a single prediction by ID.
func (d *DB) GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id)
	return scanPrediction(row)
}

// ListPredictions returns the newest predictions first. An empty model
// returns all kinds.
func (d *DB) ListPredictions(ctx context.Context, model string, limit int) ([]models.Prediction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT `+predictionColumns+`
		FROM predictions
		WHERE $1 = '' OR model_kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, model, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

// CountPredictionsByOutcome returns request counts grouped by model and
// outcome.
func (d *DB) CountPredictionsByOutcome(ctx context.Context) (map[[2]string]int64, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT model_kind, outcome, COUNT(*)
		FROM predictions
		GROUP BY model_kind, outcome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[[2]string]int64)
	for rows.Next() {
		var model, outcome string
		var n int64
		if err := rows.Scan(&model, &outcome, &n); err != nil {
			return nil, err
		}
		counts[[2]string{model, outcome}] = n
	}
	return counts, rows.Err()
}
