package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/nandusaji2001/ServConnect-sub001/internal/model"
)

// In-memory fakes for the repository interfaces. The subscription fake
// reproduces the conditional claim semantics under a mutex so concurrency
// tests are meaningful.

type fakeSubRepo struct {
	mu                  sync.Mutex
	subs                map[string]*model.Subscription
	failSetPendingOrder bool
}

func newFakeSubRepo(subs ...*model.Subscription) *fakeSubRepo {
	r := &fakeSubRepo{subs: make(map[string]*model.Subscription)}
	for _, s := range subs {
		r.subs[s.UserID] = s
	}
	return r
}

func (r *fakeSubRepo) get(userID string) *model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[userID]
}

func copySub(s *model.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (r *fakeSubRepo) GetByUserID(_ context.Context, userID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copySub(r.subs[userID]), nil
}

func (r *fakeSubRepo) GetByDeviceID(_ context.Context, deviceID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.DeviceID != nil && *s.DeviceID == deviceID {
			return copySub(s), nil
		}
	}
	return nil, nil
}

func (r *fakeSubRepo) Upsert(_ context.Context, s *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.subs[s.UserID]; ok {
		s.ID = existing.ID
		s.IsBookingPending = existing.IsBookingPending
		s.CurrentPendingOrderID = existing.CurrentPendingOrderID
	} else {
		s.ID = "sub-" + s.UserID
	}
	r.subs[s.UserID] = copySub(s)
	return nil
}

func (r *fakeSubRepo) Delete(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[userID]; !ok {
		return false, nil
	}
	delete(r.subs, userID)
	return true, nil
}

func (r *fakeSubRepo) UpdateLastReading(_ context.Context, userID string, weightGrams, percentage float64, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[userID]; ok {
		s.LastRecordedWeightGrams = weightGrams
		s.LastGasPercentage = percentage
		s.PreviousGasStatus = status
		s.LastReadingAt = &at
	}
	return nil
}

func (r *fakeSubRepo) TryClaimPendingBooking(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok || s.IsBookingPending {
		return false, nil
	}
	s.IsBookingPending = true
	return true, nil
}

func (r *fakeSubRepo) SetPendingOrder(_ context.Context, userID, orderID string, triggeredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetPendingOrder {
		return errors.New("set pending order failed")
	}
	if s, ok := r.subs[userID]; ok {
		s.CurrentPendingOrderID = &orderID
		s.LastAutoTriggerAt = &triggeredAt
	}
	return nil
}

func (r *fakeSubRepo) ReleasePendingBooking(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[userID]; ok {
		s.IsBookingPending = false
		s.CurrentPendingOrderID = nil
	}
	return nil
}

func (r *fakeSubRepo) SetLowGasAlertAt(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[userID]; ok {
		s.LastLowGasAlertAt = &at
	}
	return nil
}

type fakeReadingRepo struct {
	mu       sync.Mutex
	readings []model.Reading
}

func (r *fakeReadingRepo) Insert(_ context.Context, rd *model.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd.ID = "reading-" + strconv.Itoa(len(r.readings)+1)
	r.readings = append(r.readings, *rd)
	return nil
}

func (r *fakeReadingRepo) ListByUserID(_ context.Context, userID string, limit int) ([]model.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Reading{}
	for i := len(r.readings) - 1; i >= 0 && len(out) < limit; i-- {
		if r.readings[i].UserID == userID {
			out = append(out, r.readings[i])
		}
	}
	return out, nil
}

func (r *fakeReadingRepo) LatestByUserID(ctx context.Context, userID string) (*model.Reading, error) {
	list, err := r.ListByUserID(ctx, userID, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *fakeReadingRepo) TrimToCap(_ context.Context, userID string, cap int) (int64, error) {
	return 0, nil
}

type fakeOrderRepo struct {
	mu             sync.Mutex
	orders         map[string]*model.Order
	seq            int
	failInsert     bool
	failTransition bool
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*model.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Insert(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert {
		return errors.New("insert failed")
	}
	r.seq++
	o.ID = "order-" + strconv.Itoa(r.seq)
	o.CreatedAt = time.Now().UTC()
	c := *o
	r.orders[o.ID] = &c
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (r *fakeOrderRepo) ListByUserID(_ context.Context, userID string, limit int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if o.UserID == userID && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByVendorID(_ context.Context, vendorID string, limit int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if o.VendorID == vendorID && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListOpenByVendorID(_ context.Context, vendorID string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if o.VendorID == vendorID && !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ApplyTransition(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTransition {
		return errors.New("transition failed")
	}
	if _, ok := r.orders[o.ID]; !ok {
		return errors.New("order not found")
	}
	c := *o
	r.orders[o.ID] = &c
	return nil
}

func (r *fakeOrderRepo) SetDeliveryVerification(_ context.Context, orderID string, postWeightGrams float64, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return errors.New("order not found")
	}
	o.PostDeliveryWeightGrams = &postWeightGrams
	o.IsDeliveryVerified = verified
	return nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) ListGasVendors(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range r.users {
		if u.Role == model.RoleVendor && u.IsGasVendor && u.IsAdminApproved {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeItemRepo struct {
	item *model.Item
}

func (r *fakeItemRepo) FindActiveGasItem(_ context.Context, vendorID string) (*model.Item, error) {
	if r.item != nil && r.item.OwnerID == vendorID {
		return r.item, nil
	}
	return nil, nil
}

type sentNotification struct {
	RecipientID string
	Title       string
	Category    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, recipientID, title, body, category, relatedEntityID, actionLink string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Title: title, Category: category})
}

func (n *fakeNotifier) countCategory(category string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.Category == category {
			count++
		}
	}
	return count
}

type fakeTrimEnqueuer struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (e *fakeTrimEnqueuer) Send(_ context.Context, queue string, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads = append(e.payloads, payload)
	return nil
}
