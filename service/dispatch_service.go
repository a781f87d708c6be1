package service

import (
	"context"
	"fmt"

	"taxidispatch/config"
	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/pkg/observability"
	"taxidispatch/pkg/phone"
	"taxidispatch/storage"
)

// DispatchService sequences the order lifecycle for the four external events.
// All cross-instance coordination happens through conditional writes in the
// store; the coordinator itself holds no lock.
type DispatchService interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	AcceptAttempt(ctx context.Context, orderID, driverID int64, driverName string) (*models.Order, bool, error)
	CompleteAttempt(ctx context.Context, orderID int64) (bool, error)
	RateAttempt(ctx context.Context, orderID int64, score int) (bool, error)
	PassengerOrders(ctx context.Context, passengerID int64) ([]*models.Order, error)
}

type dispatchService struct {
	orders   storage.IOrderStorage
	drivers  storage.IDriverStorage
	rating   RatingService
	notifier Notifier
	cfg      config.Config
	log      logger.ILogger
}

func NewDispatchService(stg storage.IStorage, rating RatingService, notifier Notifier, cfg config.Config, log logger.ILogger) DispatchService {
	return &dispatchService{
		orders:   stg.Order(),
		drivers:  stg.Driver(),
		rating:   rating,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

func (s *dispatchService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Price < s.cfg.PriceMin || order.Price > s.cfg.PriceMax {
		return nil, fmt.Errorf("%w: price %d outside [%d, %d]",
			models.ErrValidation, order.Price, s.cfg.PriceMin, s.cfg.PriceMax)
	}

	normalized, ok := phone.Normalize(order.Phone)
	if !ok {
		return nil, fmt.Errorf("%w: bad phone %q", models.ErrValidation, order.Phone)
	}
	order.Phone = normalized

	if order.Category == "" {
		order.Category = models.CategoryLocal
	}
	if order.Category != models.CategoryLocal && order.Category != models.CategoryIntercity {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrValidation, order.Category)
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	observability.OrdersCreatedTotal.Inc()

	chatID, messageID, err := s.notifier.BroadcastNew(ctx, created)
	if err != nil {
		s.warnDelivery("broadcast new order", created.ID, err)
		return created, nil
	}
	created.BroadcastChatID = chatID
	created.BroadcastMessageID = messageID

	if err := s.orders.AttachBroadcast(ctx, created.ID, chatID, messageID); err != nil {
		s.log.Error("failed to remember broadcast handle", logger.Int64("order_id", created.ID), logger.Error(err))
	}

	return created, nil
}

func (s *dispatchService) AcceptAttempt(ctx context.Context, orderID, driverID int64, driverName string) (*models.Order, bool, error) {
	won, err := s.orders.TryClaim(ctx, orderID, driverID)
	if err != nil {
		return nil, false, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	if !won {
		observability.ClaimsTotal.WithLabelValues("lost").Inc()
		if err := s.notifier.NotifyLoser(ctx, driverID, orderID); err != nil {
			s.warnDelivery("notify losing driver", orderID, err)
		}
		return order, false, nil
	}

	observability.ClaimsTotal.WithLabelValues("won").Inc()

	// The claim is committed; a failed registration must not undo it.
	if err := s.drivers.Upsert(ctx, driverID, driverName); err != nil {
		s.log.Error("failed to register winning driver",
			logger.Int64("driver_id", driverID), logger.Error(err))
	}

	if err := s.notifier.EditBroadcast(ctx, order, driverName); err != nil {
		s.warnDelivery("edit broadcast", orderID, err)
	}
	if err := s.notifier.NotifyDriver(ctx, order); err != nil {
		s.warnDelivery("notify winning driver", orderID, err)
	}
	if err := s.notifier.NotifyPassenger(ctx, order, driverName); err != nil {
		s.warnDelivery("notify passenger", orderID, err)
	}

	return order, true, nil
}

func (s *dispatchService) CompleteAttempt(ctx context.Context, orderID int64) (bool, error) {
	done, err := s.orders.MarkCompleted(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !done {
		// Already completed, never accepted, or unknown: an expected
		// branch of the protocol, not an error.
		return false, nil
	}
	observability.TripsCompletedTotal.Inc()

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		s.log.Error("completed order vanished before notification",
			logger.Int64("order_id", orderID), logger.Error(err))
		return true, nil
	}

	if order.DriverID != nil {
		if err := s.notifier.AckDriver(ctx, *order.DriverID, orderID); err != nil {
			s.warnDelivery("ack driver completion", orderID, err)
		}
	}
	if err := s.notifier.PromptRating(ctx, order); err != nil {
		s.warnDelivery("prompt passenger for rating", orderID, err)
	}

	return true, nil
}

func (s *dispatchService) RateAttempt(ctx context.Context, orderID int64, score int) (bool, error) {
	order, applied, err := s.rating.Rate(ctx, orderID, score)
	if err != nil {
		return false, err
	}
	if applied {
		observability.RatingsRecordedTotal.Inc()
	}

	if err := s.notifier.AckRating(ctx, order, score, applied); err != nil {
		s.warnDelivery("ack rating", orderID, err)
	}

	return applied, nil
}

func (s *dispatchService) PassengerOrders(ctx context.Context, passengerID int64) ([]*models.Order, error) {
	return s.orders.GetPassengerOrders(ctx, passengerID)
}

func (s *dispatchService) warnDelivery(what string, orderID int64, err error) {
	observability.NotifyFailuresTotal.Inc()
	s.log.Warning("delivery failed: "+what, logger.Int64("order_id", orderID), logger.Error(err))
}
