package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxidispatch", Name: "orders_created_total", Help: "Orders accepted into the store",
	})
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxidispatch", Name: "claims_total", Help: "Driver claim attempts by outcome",
	}, []string{"outcome"})
	TripsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxidispatch", Name: "trips_completed_total", Help: "Orders moved to completed",
	})
	RatingsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxidispatch", Name: "ratings_recorded_total", Help: "Passenger ratings folded into driver averages",
	})
	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxidispatch", Name: "notify_failures_total", Help: "Outbound notifications that failed to deliver",
	})
)
