package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"

	"go.uber.org/zap"
)

// fakeOrderRepo is an in-memory OrderRepository shared by the payment
// tests. updateErr, when set, fails the next UpdateStatus once.
type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	bookings  map[string]*models.Booking
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[string]*models.Order),
		bookings: make(map[string]*models.Booking),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, ord *models.Order, _ []models.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ord
	r.orders[ord.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[orderID]
	if !ok {
		return nil, orderRepo.ErrOrderNotFound
	}
	cp := *ord
	return &cp, nil
}

func (r *fakeOrderRepo) GetLines(context.Context, string) ([]models.OrderLine, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListByGuest(context.Context, string) ([]models.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListByProperty(context.Context, string) ([]models.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, from []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		err := r.updateErr
		r.updateErr = nil
		return err
	}
	ord, ok := r.orders[orderID]
	if !ok {
		return orderRepo.ErrStatusConflict
	}
	for _, f := range from {
		if ord.Status == f {
			ord.Status = to
			ord.UpdatedAt = time.Now()
			return nil
		}
	}
	return orderRepo.ErrStatusConflict
}

func (r *fakeOrderRepo) SetCheckoutURL(_ context.Context, orderID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ord, ok := r.orders[orderID]; ok {
		ord.CheckoutURL = url
	}
	return nil
}

func (r *fakeOrderRepo) GetBookingByOrder(_ context.Context, orderID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[orderID]
	if !ok {
		return nil, orderRepo.ErrBookingNotFound
	}
	cp := *bk
	return &cp, nil
}

func (r *fakeOrderRepo) ListStaleInitiated(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListRecentlyTerminal(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

// fakeSlotRepo covers the slot release path. When orders is set,
// reservations write the order and booking through to it, mimicking the
// transactional claim.
type fakeSlotRepo struct {
	mu     sync.Mutex
	slots  map[string]*models.AvailabilitySlot
	orders *fakeOrderRepo
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string]*models.AvailabilitySlot)}
}

func (r *fakeSlotRepo) GetByID(_ context.Context, slotID string) (*models.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[slotID]
	if !ok {
		return nil, availabilityRepo.ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (r *fakeSlotRepo) FindByRange(context.Context, string, time.Time, time.Time) (*models.AvailabilitySlot, error) {
	return nil, availabilityRepo.ErrSlotNotFound
}

func (r *fakeSlotRepo) FindEarliestOpen(_ context.Context, resourceID string, after time.Time) (*models.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.AvailabilitySlot
	for _, slot := range r.slots {
		if slot.ResourceID != resourceID || slot.Status != models.SlotStatusOpen || !slot.StartTS.After(after) {
			continue
		}
		if best == nil || slot.StartTS.Before(best.StartTS) ||
			(slot.StartTS.Equal(best.StartTS) && slot.ID < best.ID) {
			best = slot
		}
	}
	if best == nil {
		return nil, availabilityRepo.ErrSlotNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *fakeSlotRepo) ListOpen(context.Context, string, time.Time) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

func (r *fakeSlotRepo) CreateSlots(_ context.Context, slots []models.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range slots {
		cp := slots[i]
		r.slots[cp.ID] = &cp
	}
	return nil
}

func (r *fakeSlotRepo) UpdateStatus(_ context.Context, slotID string, from []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[slotID]
	if !ok {
		return availabilityRepo.ErrSlotConflict
	}
	for _, f := range from {
		if slot.Status == f {
			slot.Status = to
			return nil
		}
	}
	return availabilityRepo.ErrSlotConflict
}

func (r *fakeSlotRepo) ReleaseExpiredHolds(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeSlotRepo) ReserveSlotTransactionally(ctx context.Context, slotID string, ord *models.Order, lines []models.OrderLine, bk *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[slotID]
	if !ok || slot.Status != models.SlotStatusOpen {
		return availabilityRepo.ErrSlotConflict
	}
	slot.Status = models.SlotStatusBooked
	if r.orders != nil {
		if err := r.orders.Create(ctx, ord, lines); err != nil {
			return err
		}
		r.orders.mu.Lock()
		cp := *bk
		r.orders.bookings[ord.ID] = &cp
		r.orders.mu.Unlock()
	}
	return nil
}

// fakeGateway records session requests and serves a canned response.
type fakeGateway struct {
	err  error
	last SessionRequest
}

func (g *fakeGateway) CreateSession(_ context.Context, req SessionRequest) (*models.CheckoutSession, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.test/session/cs_test_1"}, nil
}

func newCheckout(orders *fakeOrderRepo, gw *fakeGateway) *DefaultCheckoutService {
	return &DefaultCheckoutService{Orders: orders, Gateway: gw, Logger: zap.NewNop()}
}

func TestInitiateMovesOrderToPending(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["ord-1"] = &models.Order{ID: "ord-1", Total: 42.50, Status: models.OrderStatusInitiated}
	gw := &fakeGateway{}
	svc := newCheckout(orders, gw)

	url, err := svc.Initiate(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if url != "https://checkout.test/session/cs_test_1" {
		t.Errorf("unexpected url %q", url)
	}
	if gw.last.AmountMinor != 4250 {
		t.Errorf("expected amount 4250 minor units, got %d", gw.last.AmountMinor)
	}
	if gw.last.OrderID != "ord-1" {
		t.Errorf("expected order id on session request, got %q", gw.last.OrderID)
	}

	ord, _ := orders.GetByID(context.Background(), "ord-1")
	if ord.Status != models.OrderStatusPending {
		t.Errorf("expected pending, got %s", ord.Status)
	}
	if ord.CheckoutURL != url {
		t.Errorf("checkout url not stored, got %q", ord.CheckoutURL)
	}
}

func TestInitiateAcceptsPendingOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["ord-1"] = &models.Order{ID: "ord-1", Total: 10, Status: models.OrderStatusPending}
	svc := newCheckout(orders, &fakeGateway{})

	if _, err := svc.Initiate(context.Background(), "ord-1"); err != nil {
		t.Fatalf("re-initiating a pending order should issue a fresh session: %v", err)
	}
}

func TestInitiateRejectsSettledOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newCheckout(orders, &fakeGateway{})
	ctx := context.Background()

	for _, status := range []string{models.OrderStatusPaid, models.OrderStatusFailed, models.OrderStatusCancelled} {
		orders.orders["ord-1"] = &models.Order{ID: "ord-1", Total: 10, Status: status}
		if _, err := svc.Initiate(ctx, "ord-1"); !errors.Is(err, ErrOrderNotPayable) {
			t.Errorf("status %s: expected ErrOrderNotPayable, got %v", status, err)
		}
	}
}

func TestInitiateUnknownOrder(t *testing.T) {
	svc := newCheckout(newFakeOrderRepo(), &fakeGateway{})
	if _, err := svc.Initiate(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestInitiateRejectsNonPositiveTotal(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["ord-1"] = &models.Order{ID: "ord-1", Total: 0, Status: models.OrderStatusInitiated}
	svc := newCheckout(orders, &fakeGateway{})

	if _, err := svc.Initiate(context.Background(), "ord-1"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInitiateProcessorFailureLeavesState(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["ord-1"] = &models.Order{ID: "ord-1", Total: 10, Status: models.OrderStatusInitiated}
	svc := newCheckout(orders, &fakeGateway{err: errors.New("stripe is down")})

	if _, err := svc.Initiate(context.Background(), "ord-1"); !errors.Is(err, ErrProcessorUnavailable) {
		t.Errorf("expected ErrProcessorUnavailable, got %v", err)
	}
	ord, _ := orders.GetByID(context.Background(), "ord-1")
	if ord.Status != models.OrderStatusInitiated {
		t.Errorf("processor failure must leave order state untouched, got %s", ord.Status)
	}
	if ord.CheckoutURL != "" {
		t.Errorf("no checkout url should be stored on failure, got %q", ord.CheckoutURL)
	}
}
