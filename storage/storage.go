package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxidispatch/pkg/models"
)

type IStorage interface {
	Order() IOrderStorage
	Driver() IDriverStorage
	Close()
	GetPool() *pgxpool.Pool
}

type IOrderStorage interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	AttachBroadcast(ctx context.Context, id int64, chatID int64, messageID int) error

	// TryClaim atomically moves the order new -> accepted for driverID and
	// reports whether driverID holds the order afterwards. A retry by the
	// driver that already holds the order reports true.
	TryClaim(ctx context.Context, orderID, driverID int64) (bool, error)

	// MarkCompleted moves accepted -> completed. Reports false when the
	// order is not currently accepted.
	MarkCompleted(ctx context.Context, orderID int64) (bool, error)

	// SetRating attaches the passenger rating once per order. Reports the
	// order after the attempt and whether this call applied the rating.
	SetRating(ctx context.Context, orderID int64, rating int) (*models.Order, bool, error)

	GetPassengerOrders(ctx context.Context, passengerID int64) ([]*models.Order, error)
	GetDriverOrders(ctx context.Context, driverID int64) ([]*models.Order, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type IDriverStorage interface {
	// Upsert registers the driver if unknown and refreshes the display
	// name otherwise. Rating statistics are never touched.
	Upsert(ctx context.Context, id int64, name string) error
	Get(ctx context.Context, id int64) (*models.Driver, error)

	// FoldRating adds one score into the driver's running average in a
	// single atomic write. Unknown drivers are created with avg=score.
	FoldRating(ctx context.Context, id int64, score int) error

	GetTop(ctx context.Context, limit int) ([]*models.Driver, error)
}

type ISessionStorage interface {
	Get(ctx context.Context, userID int64) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Clear(ctx context.Context, userID int64) error
}
