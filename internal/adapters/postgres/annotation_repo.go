package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ankyra/internal/core/domain"
)

// AnnotationRepo implements ports.AnnotationRepository with pgx.
type AnnotationRepo struct {
	db *DB
}

// NewAnnotationRepo creates a new AnnotationRepo.
func NewAnnotationRepo(db *DB) *AnnotationRepo {
	return &AnnotationRepo{db: db}
}

// Insert stores a new annotation.
func (r *AnnotationRepo) Insert(ctx context.Context, a *domain.Annotation) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO annotations (id, lat, lng, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Location.Lat, a.Location.Lng, a.Note, a.CreatedAt)
	return err
}

// List returns all annotations, oldest first.
func (r *AnnotationRepo) List(ctx context.Context) ([]domain.Annotation, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, lat, lng, note, created_at
		FROM annotations
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Annotation
	for rows.Next() {
		var a domain.Annotation
		if err := rows.Scan(&a.ID, &a.Location.Lat, &a.Location.Lng, &a.Note, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetByID returns one annotation or domain.ErrNotFound.
func (r *AnnotationRepo) GetByID(ctx context.Context, id string) (*domain.Annotation, error) {
	var a domain.Annotation
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, lat, lng, note, created_at
		FROM annotations WHERE id = $1
	`, id).Scan(&a.ID, &a.Location.Lat, &a.Location.Lng, &a.Note, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes an annotation, returning domain.ErrNotFound if it is absent.
func (r *AnnotationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM annotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
