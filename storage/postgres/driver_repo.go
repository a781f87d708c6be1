package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/storage"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func (r *driverRepo) Upsert(ctx context.Context, id int64, name string) error {
	query := `
		INSERT INTO drivers (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name
	`
	_, err := r.db.Exec(ctx, query, id, name)
	if err != nil {
		r.log.Error("failed to upsert driver", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *driverRepo) Get(ctx context.Context, id int64) (*models.Driver, error) {
	var driver models.Driver
	query := `SELECT id, name, rating, rating_count, created_at FROM drivers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&driver.ID, &driver.Name, &driver.Rating, &driver.RatingCount, &driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.log.Error("failed to get driver", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return &driver, nil
}

// FoldRating folds one score into the running average in a single statement.
// The row lock taken by the upsert serializes concurrent folds for the same
// driver, so back-to-back ratings are never lost to a write-write race.
func (r *driverRepo) FoldRating(ctx context.Context, id int64, score int) error {
	query := `
		INSERT INTO drivers (id, name, rating, rating_count)
		VALUES ($1, '', $2, 1)
		ON CONFLICT (id) DO UPDATE
		SET rating = (drivers.rating * drivers.rating_count + EXCLUDED.rating) / (drivers.rating_count + 1),
		    rating_count = drivers.rating_count + 1
	`
	_, err := r.db.Exec(ctx, query, id, float64(score))
	if err != nil {
		r.log.Error("failed to fold rating", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

func (r *driverRepo) GetTop(ctx context.Context, limit int) ([]*models.Driver, error) {
	query := `
		SELECT id, name, rating, rating_count, created_at
		FROM drivers
		WHERE rating_count > 0
		ORDER BY rating DESC, rating_count DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Rating, &d.RatingCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, &d)
	}
	return drivers, rows.Err()
}
