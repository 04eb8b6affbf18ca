package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotel-service/internal/apperr"
	"hotel-service/internal/models"
	"hotel-service/internal/store"
)

// memRepo is an in-memory store.Repository. Row locks are real mutexes held
// until the transaction ends, and writes are undone on rollback.
type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	rooms     map[int64]*models.Room
	bookings  map[int64]*models.Booking
	payments  map[int64]*models.Payment
	rowLocks  map[string]*sync.Mutex
	failOn    string
	failErr   error
	commits   int
	rollbacks int
}

func newMemRepo() *memRepo {
	return &memRepo{
		nextID:   100,
		rooms:    make(map[int64]*models.Room),
		bookings: make(map[int64]*models.Booking),
		payments: make(map[int64]*models.Payment),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func (r *memRepo) addRoom(room models.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = &room
}

func (r *memRepo) addBooking(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = &b
}

func (r *memRepo) addPayment(p models.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = &p
}

func (r *memRepo) paymentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

func (r *memRepo) bookingStatus(id int64) models.BookingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

func (r *memRepo) rowLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rowLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.rowLocks[key] = l
	}
	return l
}

func (r *memRepo) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NotFound("booking not found: %d", id)
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) GetRoomByID(ctx context.Context, id int64) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, apperr.NotFound("room not found: %d", id)
	}
	cp := *room
	return &cp, nil
}

func (r *memRepo) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	return r.findPayment(func(p *models.Payment) bool { return p.BookingID == bookingID }), nil
}

func (r *memRepo) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	return r.findPayment(func(p *models.Payment) bool { return p.TransactionID == transactionID }), nil
}

func (r *memRepo) findPayment(match func(*models.Payment) bool) *models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if match(p) {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	tx := &memTx{repo: r}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	repo *memRepo
	held []*sync.Mutex
	undo []func()
}

func (t *memTx) fail(op string) error {
	if t.repo.failOn == op {
		return t.repo.failErr
	}
	return nil
}

func (t *memTx) commit() {
	t.repo.mu.Lock()
	t.repo.commits++
	t.repo.mu.Unlock()
	t.release()
}

func (t *memTx) rollback() {
	t.repo.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.repo.rollbacks++
	t.repo.mu.Unlock()
	t.release()
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memTx) lock(key string) {
	l := t.repo.rowLock(key)
	l.Lock()
	t.held = append(t.held, l)
}

func (t *memTx) LockBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	t.lock(fmt.Sprintf("booking:%d", id))
	return t.repo.GetBookingByID(ctx, id)
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if err := t.fail("UpdateBookingStatus"); err != nil {
		return err
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	b, ok := t.repo.bookings[id]
	if !ok {
		return apperr.NotFound("booking not found: %d", id)
	}
	old := b.Status
	b.Status = status
	t.undo = append(t.undo, func() { b.Status = old })
	return nil
}

func (t *memTx) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	return t.repo.GetPaymentByBookingID(ctx, bookingID)
}

func (t *memTx) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	return t.repo.GetPaymentByTransactionID(ctx, transactionID)
}

func (t *memTx) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := t.fail("CreatePayment"); err != nil {
		return err
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, p := range t.repo.payments {
		if p.BookingID == payment.BookingID || p.TransactionID == payment.TransactionID {
			return apperr.Conflict("failed to create payment: duplicate payment")
		}
	}
	t.repo.nextID++
	payment.ID = t.repo.nextID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	cp := *payment
	t.repo.payments[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.repo.payments, cp.ID) })
	return nil
}

func (t *memTx) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	p, ok := t.repo.payments[id]
	if !ok {
		return apperr.NotFound("payment not found: %d", id)
	}
	old := p.Status
	p.Status = status
	t.undo = append(t.undo, func() { p.Status = old })
	return nil
}

func (t *memTx) LockRoomForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	t.lock(fmt.Sprintf("room:%d", id))
	return t.repo.GetRoomByID(ctx, id)
}

func (t *memTx) CountOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (int, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	n := 0
	for _, b := range t.repo.bookings {
		if b.RoomID != roomID || b.Status == models.BookingStatusCancelled || b.Status == models.BookingStatusCheckedOut {
			continue
		}
		if b.CheckInDate.Before(checkOut) && b.CheckOutDate.After(checkIn) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateBooking(ctx context.Context, booking *models.Booking) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, b := range t.repo.bookings {
		if b.BookingReference == booking.BookingReference {
			return apperr.Conflict("failed to create booking: duplicate reference")
		}
	}
	t.repo.nextID++
	booking.ID = t.repo.nextID
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	t.repo.bookings[cp.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.repo.bookings, cp.ID) })
	return nil
}

type statusEvent struct {
	bookingID int64
	from, to  models.BookingStatus
}

type fakePublisher struct {
	mu       sync.Mutex
	broken   bool
	created  []int64
	statuses []statusEvent
	payments []models.Payment
}

func (f *fakePublisher) PublishBookingCreated(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, b.ID)
	return nil
}

func (f *fakePublisher) PublishBookingStatus(ctx context.Context, bookingID int64, from, to models.BookingStatus, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusEvent{bookingID: bookingID, from: from, to: to})
	return nil
}

func (f *fakePublisher) PublishPayment(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, *p)
	if f.broken {
		return errors.New("broker unavailable")
	}
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{keys: make(map[string]interface{})}
}

func (c *fakeCache) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = value
	return nil
}

func (c *fakeCache) GetIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.keys[key]
	if !ok {
		return "", false, nil
	}
	return fmt.Sprint(v), true, nil
}

func (c *fakeCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = make(map[string]interface{})
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", nil
	}
	l.held[key] = "token-" + key
	return l.held[key], nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
