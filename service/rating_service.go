package service

import (
	"context"
	"fmt"

	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/storage"
)

type RatingService interface {
	// Rate attaches the passenger score to the order and folds it into the
	// assigned driver's running average. Reports the order after the
	// attempt and whether this call applied the score; a repeat rating is
	// a no-op with applied=false.
	Rate(ctx context.Context, orderID int64, score int) (*models.Order, bool, error)
}

type ratingService struct {
	orders  storage.IOrderStorage
	drivers storage.IDriverStorage
	log     logger.ILogger
}

func NewRatingService(stg storage.IStorage, log logger.ILogger) RatingService {
	return &ratingService{
		orders:  stg.Order(),
		drivers: stg.Driver(),
		log:     log,
	}
}

func (s *ratingService) Rate(ctx context.Context, orderID int64, score int) (*models.Order, bool, error) {
	if score < 1 || score > 5 {
		return nil, false, fmt.Errorf("%w: rating %d outside 1..5", models.ErrValidation, score)
	}

	order, applied, err := s.orders.SetRating(ctx, orderID, score)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return order, false, nil
	}

	// A completed order always carries its driver, but a missing one must
	// not take the whole rating down with it.
	if order.DriverID == nil {
		s.log.Warning("rated order has no assigned driver, skipping fold",
			logger.Int64("order_id", orderID))
		return order, true, nil
	}

	if err := s.drivers.FoldRating(ctx, *order.DriverID, score); err != nil {
		return order, true, err
	}

	return order, true, nil
}
