package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/storage"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...logger.Field)    {}
func (nopLogger) Error(string, ...logger.Field)   {}
func (nopLogger) Warning(string, ...logger.Field) {}

// memStore is an in-memory stand-in for the Postgres store. Its conditional
// writes mirror the repo SQL: claim and completion take effect only from the
// expected state, and folds are serialized per driver by the store lock.
type memStore struct {
	orders  *memOrders
	drivers *memDrivers
}

func newMemStore() *memStore {
	return &memStore{
		orders:  &memOrders{orders: make(map[int64]*models.Order)},
		drivers: &memDrivers{drivers: make(map[int64]*models.Driver)},
	}
}

func (s *memStore) Order() storage.IOrderStorage   { return s.orders }
func (s *memStore) Driver() storage.IDriverStorage { return s.drivers }
func (s *memStore) Close()                         {}
func (s *memStore) GetPool() *pgxpool.Pool         { return nil }

type memOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
}

func (m *memOrders) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	order.Status = models.StatusNew
	stored := *order
	m.orders[order.ID] = &stored
	return order, nil
}

func (m *memOrders) GetByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *memOrders) AttachBroadcast(_ context.Context, id int64, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.BroadcastChatID = chatID
		o.BroadcastMessageID = messageID
	}
	return nil
}

func (m *memOrders) TryClaim(_ context.Context, orderID, driverID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, models.ErrNotFound
	}
	if o.Status == models.StatusNew {
		o.Status = models.StatusAccepted
		d := driverID
		o.DriverID = &d
	}
	return o.DriverID != nil && *o.DriverID == driverID, nil
}

func (m *memOrders) MarkCompleted(_ context.Context, orderID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != models.StatusAccepted {
		return false, nil
	}
	o.Status = models.StatusCompleted
	return true, nil
}

func (m *memOrders) SetRating(_ context.Context, orderID int64, rating int) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	applied := false
	if o.Status == models.StatusCompleted && o.Rating == 0 {
		o.Rating = rating
		applied = true
	}
	copied := *o
	return &copied, applied, nil
}

func (m *memOrders) GetPassengerOrders(_ context.Context, passengerID int64) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.PassengerID == passengerID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memOrders) GetDriverOrders(_ context.Context, driverID int64) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.DriverID != nil && *o.DriverID == driverID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memOrders) CountByStatus(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, o := range m.orders {
		counts[o.Status]++
	}
	return counts, nil
}

type memDrivers struct {
	mu      sync.Mutex
	drivers map[int64]*models.Driver
}

func (m *memDrivers) Upsert(_ context.Context, id int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drivers[id]; ok {
		d.Name = name
		return nil
	}
	m.drivers[id] = &models.Driver{ID: id, Name: name}
	return nil
}

func (m *memDrivers) Get(_ context.Context, id int64) (*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *memDrivers) FoldRating(_ context.Context, id int64, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		m.drivers[id] = &models.Driver{ID: id, Rating: float64(score), RatingCount: 1}
		return nil
	}
	d.Rating = (d.Rating*float64(d.RatingCount) + float64(score)) / float64(d.RatingCount+1)
	d.RatingCount++
	return nil
}

func (m *memDrivers) GetTop(_ context.Context, limit int) ([]*models.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Driver
	for _, d := range m.drivers {
		if d.RatingCount > 0 {
			copied := *d
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// recordingNotifier counts fan-out calls; optionally fails everything to
// prove delivery failures never affect store state.
type recordingNotifier struct {
	mu         sync.Mutex
	failAll    bool
	broadcasts int
	edits      int
	driverMsgs int
	passMsgs   int
	loserMsgs  int
	acks       int
	prompts    int
	ratingAcks int
}

func (n *recordingNotifier) err() error {
	if n.failAll {
		return context.DeadlineExceeded
	}
	return nil
}

func (n *recordingNotifier) BroadcastNew(context.Context, *models.Order) (int64, int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts++
	if n.failAll {
		return 0, 0, context.DeadlineExceeded
	}
	return -100500, n.broadcasts + 41, nil
}

func (n *recordingNotifier) EditBroadcast(context.Context, *models.Order, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edits++
	return n.err()
}

func (n *recordingNotifier) NotifyDriver(context.Context, *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.driverMsgs++
	return n.err()
}

func (n *recordingNotifier) NotifyPassenger(context.Context, *models.Order, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.passMsgs++
	return n.err()
}

func (n *recordingNotifier) NotifyLoser(context.Context, int64, int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loserMsgs++
	return n.err()
}

func (n *recordingNotifier) AckDriver(context.Context, int64, int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.acks++
	return n.err()
}

func (n *recordingNotifier) PromptRating(context.Context, *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts++
	return n.err()
}

func (n *recordingNotifier) AckRating(context.Context, *models.Order, int, bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ratingAcks++
	return n.err()
}
