package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"taxidispatch/config"
	"taxidispatch/pkg/models"
)

func testConfig() config.Config {
	return config.Config{PriceMin: 100, PriceMax: 100000}
}

func newTestDispatch(store *memStore, notifier *recordingNotifier) DispatchService {
	log := nopLogger{}
	return NewDispatchService(store, NewRatingService(store, log), notifier, testConfig(), log)
}

func mustCreate(t *testing.T, svc DispatchService, price int) *models.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), &models.Order{
		FromAddr:    "A",
		ToAddr:      "B",
		Price:       price,
		Phone:       "+7 701 123 45 67",
		PassengerID: 1001,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateOrderPriceBounds(t *testing.T) {
	svc := newTestDispatch(newMemStore(), &recordingNotifier{})

	for _, price := range []int{99, 100001} {
		_, err := svc.CreateOrder(context.Background(), &models.Order{
			FromAddr: "A", ToAddr: "B", Price: price, Phone: "+77011234567", PassengerID: 1,
		})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("price %d: expected validation error, got %v", price, err)
		}
	}

	for _, price := range []int{100, 100000} {
		if _, err := svc.CreateOrder(context.Background(), &models.Order{
			FromAddr: "A", ToAddr: "B", Price: price, Phone: "+77011234567", PassengerID: 1,
		}); err != nil {
			t.Errorf("price %d: expected success, got %v", price, err)
		}
	}
}

func TestCreateOrderBadPhone(t *testing.T) {
	svc := newTestDispatch(newMemStore(), &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), &models.Order{
		FromAddr: "A", ToAddr: "B", Price: 500, Phone: "12345", PassengerID: 1,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderBadCategory(t *testing.T) {
	svc := newTestDispatch(newMemStore(), &recordingNotifier{})

	_, err := svc.CreateOrder(context.Background(), &models.Order{
		FromAddr: "A", ToAddr: "B", Price: 500, Phone: "+77011234567", PassengerID: 1,
		Category: "orbital",
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderAttachesBroadcastHandle(t *testing.T) {
	store := newMemStore()
	svc := newTestDispatch(store, &recordingNotifier{})

	order := mustCreate(t, svc, 500)
	if order.Status != models.StatusNew {
		t.Fatalf("expected status new, got %s", order.Status)
	}
	if order.DriverID != nil {
		t.Fatalf("fresh order must have no driver")
	}
	if order.BroadcastMessageID == 0 {
		t.Fatalf("expected broadcast handle on returned order")
	}

	stored, err := store.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.BroadcastMessageID != order.BroadcastMessageID || stored.BroadcastChatID != order.BroadcastChatID {
		t.Fatalf("broadcast handle not persisted: %+v", stored)
	}
}

func TestCreateOrderSurvivesBroadcastFailure(t *testing.T) {
	store := newMemStore()
	svc := newTestDispatch(store, &recordingNotifier{failAll: true})

	order := mustCreate(t, svc, 500)
	stored, err := store.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("order should exist despite delivery failure: %v", err)
	}
	if stored.Status != models.StatusNew {
		t.Fatalf("unexpected status %s", stored.Status)
	}
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newTestDispatch(store, notifier)

	order := mustCreate(t, svc, 500)

	const attempts = 8
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		driverID := int64(2000 + i)
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, won, err := svc.AcceptAttempt(context.Background(), order.ID, id, fmt.Sprintf("driver-%d", id))
			if err != nil {
				t.Errorf("accept attempt: %v", err)
				return
			}
			results <- won
		}(driverID)
	}
	wg.Wait()
	close(results)

	winners := 0
	for won := range results {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}

	final, err := store.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != models.StatusAccepted {
		t.Fatalf("expected accepted, got %s", final.Status)
	}
	if final.DriverID == nil {
		t.Fatalf("expected assigned driver")
	}

	// Only the winner is registered; losers are never upserted.
	if got := len(store.drivers.drivers); got != 1 {
		t.Fatalf("expected 1 registered driver, got %d", got)
	}
	if _, err := store.drivers.Get(context.Background(), *final.DriverID); err != nil {
		t.Fatalf("winner not registered: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.loserMsgs != attempts-1 {
		t.Fatalf("expected %d loser notices, got %d", attempts-1, notifier.loserMsgs)
	}
	if notifier.edits != 1 || notifier.driverMsgs != 1 || notifier.passMsgs != 1 {
		t.Fatalf("unexpected winner fan-out: edits=%d driver=%d passenger=%d",
			notifier.edits, notifier.driverMsgs, notifier.passMsgs)
	}
}

func TestClaimRetryByWinnerSucceeds(t *testing.T) {
	store := newMemStore()
	svc := newTestDispatch(store, &recordingNotifier{})

	order := mustCreate(t, svc, 500)

	if _, won, err := svc.AcceptAttempt(context.Background(), order.ID, 7, "x"); err != nil || !won {
		t.Fatalf("first claim: won=%v err=%v", won, err)
	}
	// A timed-out claim is retried as-is; the holder must not lose to itself.
	if _, won, err := svc.AcceptAttempt(context.Background(), order.ID, 7, "x"); err != nil || !won {
		t.Fatalf("retry by holder: won=%v err=%v", won, err)
	}
	if _, won, err := svc.AcceptAttempt(context.Background(), order.ID, 8, "y"); err != nil || won {
		t.Fatalf("claim on accepted order: won=%v err=%v", won, err)
	}
}

func TestClaimUnknownOrder(t *testing.T) {
	svc := newTestDispatch(newMemStore(), &recordingNotifier{})

	_, _, err := svc.AcceptAttempt(context.Background(), 404, 7, "x")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompleteIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestDispatch(store, &recordingNotifier{})

	order := mustCreate(t, svc, 500)

	// Completion before acceptance is a no-op.
	if done, err := svc.CompleteAttempt(context.Background(), order.ID); err != nil || done {
		t.Fatalf("complete on new order: done=%v err=%v", done, err)
	}

	if _, won, err := svc.AcceptAttempt(context.Background(), order.ID, 7, "x"); err != nil || !won {
		t.Fatalf("claim: won=%v err=%v", won, err)
	}

	if done, err := svc.CompleteAttempt(context.Background(), order.ID); err != nil || !done {
		t.Fatalf("first complete: done=%v err=%v", done, err)
	}
	if done, err := svc.CompleteAttempt(context.Background(), order.ID); err != nil || done {
		t.Fatalf("second complete must be a no-op: done=%v err=%v", done, err)
	}

	final, _ := store.orders.GetByID(context.Background(), order.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
}

func TestFullTripScenario(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := newTestDispatch(store, notifier)

	order := mustCreate(t, svc, 500)

	var wg sync.WaitGroup
	for _, driverID := range []int64{111, 222} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, _, err := svc.AcceptAttempt(context.Background(), order.ID, id, "d"); err != nil {
				t.Errorf("accept: %v", err)
			}
		}(driverID)
	}
	wg.Wait()

	claimed, _ := store.orders.GetByID(context.Background(), order.ID)
	if claimed.Status != models.StatusAccepted || claimed.DriverID == nil {
		t.Fatalf("bad state after claims: %+v", claimed)
	}
	winner := *claimed.DriverID
	if winner != 111 && winner != 222 {
		t.Fatalf("winner must be one of the claimants, got %d", winner)
	}

	if done, err := svc.CompleteAttempt(context.Background(), order.ID); err != nil || !done {
		t.Fatalf("complete: done=%v err=%v", done, err)
	}

	if applied, err := svc.RateAttempt(context.Background(), order.ID, 5); err != nil || !applied {
		t.Fatalf("first rating: applied=%v err=%v", applied, err)
	}
	driver, err := store.drivers.Get(context.Background(), winner)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if driver.Rating != 5.0 || driver.RatingCount != 1 {
		t.Fatalf("expected (5, 1), got (%v, %d)", driver.Rating, driver.RatingCount)
	}

	// First rating wins; a second submission changes nothing.
	if applied, err := svc.RateAttempt(context.Background(), order.ID, 1); err != nil || applied {
		t.Fatalf("second rating: applied=%v err=%v", applied, err)
	}
	driver, _ = store.drivers.Get(context.Background(), winner)
	if driver.Rating != 5.0 || driver.RatingCount != 1 {
		t.Fatalf("re-rating must not change stats, got (%v, %d)", driver.Rating, driver.RatingCount)
	}
}

func TestRateAttemptValidation(t *testing.T) {
	svc := newTestDispatch(newMemStore(), &recordingNotifier{})

	for _, score := range []int{0, 6, -1} {
		_, err := svc.RateAttempt(context.Background(), 1, score)
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("score %d: expected validation error, got %v", score, err)
		}
	}
}

func TestUpsertRefreshesNameOnly(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	if err := store.drivers.Upsert(ctx, 7, "old name"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.drivers.FoldRating(ctx, 7, 4); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if err := store.drivers.Upsert(ctx, 7, "new name"); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	d, _ := store.drivers.Get(ctx, 7)
	if d.Name != "new name" {
		t.Fatalf("name not refreshed: %q", d.Name)
	}
	if d.Rating != 4.0 || d.RatingCount != 1 {
		t.Fatalf("upsert must not reset stats, got (%v, %d)", d.Rating, d.RatingCount)
	}
}
