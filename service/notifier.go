package service

import (
	"context"

	"taxidispatch/pkg/models"
)

// Notifier renders already-decided order state into outbound messages. Every
// method is best-effort: a delivery failure never rolls back a state
// transition that the store has committed.
type Notifier interface {
	// BroadcastNew announces a fresh order to the driver pool and returns
	// the handle of the broadcast message for later editing.
	BroadcastNew(ctx context.Context, order *models.Order) (chatID int64, messageID int, err error)

	// EditBroadcast rewrites the broadcast so the pool sees the order is taken.
	EditBroadcast(ctx context.Context, order *models.Order, driverName string) error

	// NotifyDriver sends the winning driver the trip details and the
	// complete-trip affordance.
	NotifyDriver(ctx context.Context, order *models.Order) error

	// NotifyPassenger tells the passenger a driver was found.
	NotifyPassenger(ctx context.Context, order *models.Order, driverName string) error

	// NotifyLoser tells a driver that lost the claim race. Sent only to
	// that driver, never to the pool.
	NotifyLoser(ctx context.Context, driverID, orderID int64) error

	// AckDriver confirms trip completion to the driver.
	AckDriver(ctx context.Context, driverID, orderID int64) error

	// PromptRating asks the passenger to rate the finished trip.
	PromptRating(ctx context.Context, order *models.Order) error

	// AckRating confirms the rating outcome to the passenger. When applied
	// is false the order carries the reason: either it already holds a
	// rating or it is not completed yet.
	AckRating(ctx context.Context, order *models.Order, score int, applied bool) error
}
