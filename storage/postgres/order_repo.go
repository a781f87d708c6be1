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

type orderRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewOrderRepo(db *pgxpool.Pool, log logger.ILogger) storage.IOrderStorage {
	return &orderRepo{db: db, log: log}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	query := `
		INSERT INTO orders (from_addr, to_addr, price, phone, passenger_id, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`
	err := r.db.QueryRow(ctx, query,
		order.FromAddr,
		order.ToAddr,
		order.Price,
		order.Phone,
		order.PassengerID,
		order.Category,
	).Scan(&order.ID, &order.Status, &order.CreatedAt)

	if err != nil {
		r.log.Error("failed to create order", logger.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	query := `
		SELECT id, from_addr, to_addr, price, phone, passenger_id, category,
		       status, rating, driver_id, broadcast_chat_id, broadcast_message_id, created_at
		FROM orders
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.FromAddr,
		&order.ToAddr,
		&order.Price,
		&order.Phone,
		&order.PassengerID,
		&order.Category,
		&order.Status,
		&order.Rating,
		&order.DriverID,
		&order.BroadcastChatID,
		&order.BroadcastMessageID,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.log.Error("failed to get order by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}

	return &order, nil
}

func (r *orderRepo) AttachBroadcast(ctx context.Context, id int64, chatID int64, messageID int) error {
	_, err := r.db.Exec(ctx,
		"UPDATE orders SET broadcast_chat_id = $1, broadcast_message_id = $2 WHERE id = $3",
		chatID, messageID, id,
	)
	if err != nil {
		r.log.Error("failed to attach broadcast handle", logger.Int64("id", id), logger.Error(err))
	}
	return err
}

// TryClaim is the single conditional write that decides the winner. The
// UPDATE takes effect only while the order is still new; the follow-up read
// reports who actually holds the order, so a retry by the winning driver
// comes back true instead of losing to itself.
func (r *orderRepo) TryClaim(ctx context.Context, orderID, driverID int64) (bool, error) {
	_, err := r.db.Exec(ctx,
		"UPDATE orders SET status = $1, driver_id = $2 WHERE id = $3 AND status = $4",
		models.StatusAccepted, driverID, orderID, models.StatusNew,
	)
	if err != nil {
		r.log.Error("failed to claim order", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}

	var current *int64
	err = r.db.QueryRow(ctx, "SELECT driver_id FROM orders WHERE id = $1", orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, models.ErrNotFound
		}
		return false, err
	}

	return current != nil && *current == driverID, nil
}

func (r *orderRepo) MarkCompleted(ctx context.Context, orderID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND status = $3",
		models.StatusCompleted, orderID, models.StatusAccepted,
	)
	if err != nil {
		r.log.Error("failed to complete order", logger.Int64("order_id", orderID), logger.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetRating writes the rating only while the order is completed and unrated,
// so the first rating wins and a resubmission never double counts.
func (r *orderRepo) SetRating(ctx context.Context, orderID int64, rating int) (*models.Order, bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE orders SET rating = $1 WHERE id = $2 AND status = $3 AND rating = 0",
		rating, orderID, models.StatusCompleted,
	)
	if err != nil {
		r.log.Error("failed to set rating", logger.Int64("order_id", orderID), logger.Error(err))
		return nil, false, err
	}

	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	return order, tag.RowsAffected() == 1, nil
}

func (r *orderRepo) GetPassengerOrders(ctx context.Context, passengerID int64) ([]*models.Order, error) {
	query := `
		SELECT id, from_addr, to_addr, price, phone, passenger_id, category,
		       status, rating, driver_id, broadcast_chat_id, broadcast_message_id, created_at
		FROM orders
		WHERE passenger_id = $1
		ORDER BY created_at DESC
	`
	return r.scanOrders(ctx, query, passengerID)
}

func (r *orderRepo) GetDriverOrders(ctx context.Context, driverID int64) ([]*models.Order, error) {
	query := `
		SELECT id, from_addr, to_addr, price, phone, passenger_id, category,
		       status, rating, driver_id, broadcast_chat_id, broadcast_message_id, created_at
		FROM orders
		WHERE driver_id = $1
		ORDER BY created_at DESC
	`
	return r.scanOrders(ctx, query, driverID)
}

func (r *orderRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, "SELECT status, count(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *orderRepo) scanOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.FromAddr, &o.ToAddr, &o.Price, &o.Phone, &o.PassengerID, &o.Category,
			&o.Status, &o.Rating, &o.DriverID, &o.BroadcastChatID, &o.BroadcastMessageID, &o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}
