package service

import (
	"taxidispatch/config"
	"taxidispatch/pkg/logger"
	"taxidispatch/storage"
)

type IServiceManager interface {
	Dispatch() DispatchService
	Rating() RatingService
}

type service struct {
	dispatchService DispatchService
	ratingService   RatingService
}

func New(stg storage.IStorage, notifier Notifier, cfg config.Config, log logger.ILogger) IServiceManager {
	rating := NewRatingService(stg, log)
	return &service{
		dispatchService: NewDispatchService(stg, rating, notifier, cfg, log),
		ratingService:   rating,
	}
}

func (s *service) Dispatch() DispatchService {
	return s.dispatchService
}

func (s *service) Rating() RatingService {
	return s.ratingService
}
