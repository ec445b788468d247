package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// FeatureRepo implements ports.FeatureRepository with pgx.
type FeatureRepo struct {
	db *DB
}

// NewFeatureRepo creates a new FeatureRepo.
func NewFeatureRepo(db *DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

// ListByKind returns the features of one layer in import order.
func (r *FeatureRepo) ListByKind(ctx context.Context, kind domain.LayerKind) ([]domain.Feature, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, name, description, category, color,
		       location_lat, location_lng, radius, points, created_at
		FROM features
		WHERE kind = $1
		ORDER BY position, id
	`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []domain.Feature
	for rows.Next() {
		var (
			f        domain.Feature
			k        string
			lat, lng *float64
			points   []byte
		)
		if err := rows.Scan(
			&f.ID, &k, &f.Name, &f.Description, &f.Category, &f.Color,
			&lat, &lng, &f.Radius, &points, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.Kind = domain.LayerKind(k)
		if lat != nil && lng != nil {
			f.Location = &domain.WorldPoint{Lat: *lat, Lng: *lng}
		}
		if len(points) > 0 {
			if err := json.Unmarshal(points, &f.Points); err != nil {
				return nil, fmt.Errorf("decode points of %s: %w", f.ID, err)
			}
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// ReplaceLayer deletes every feature of kind and inserts features in one
// transaction, so readers see either the old or the new layer.
func (r *FeatureRepo) ReplaceLayer(ctx context.Context, kind domain.LayerKind, features []domain.Feature) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM features WHERE kind = $1`, string(kind)); err != nil {
			return fmt.Errorf("clear layer: %w", err)
		}

		batch := &pgx.Batch{}
		for i, f := range features {
			var lat, lng *float64
			if f.Location != nil {
				lat, lng = &f.Location.Lat, &f.Location.Lng
			}
			points := f.Points
			if points == nil {
				points = []domain.WorldPoint{}
			}
			data, err := json.Marshal(points)
			if err != nil {
				return fmt.Errorf("encode points of %s: %w", f.ID, err)
			}
			batch.Queue(`
				INSERT INTO features (kind, id, name, description, category, color,
				                      location_lat, location_lng, radius, points, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, string(kind), f.ID, f.Name, f.Description, f.Category, f.Color,
				lat, lng, f.Radius, data, i)
		}

		br := tx.SendBatch(ctx, batch)
		for range features {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		return br.Close()
	})
}
