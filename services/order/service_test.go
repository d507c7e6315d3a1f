package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	orderRepo "innkeeper/database/repository/order"
	"innkeeper/models"

	"go.uber.org/zap"
)

// fakeOrderRepo is an in-memory OrderRepository.
type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	lines    map[string][]models.OrderLine
	bookings map[string]*models.Booking
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[string]*models.Order),
		lines:    make(map[string][]models.OrderLine),
		bookings: make(map[string]*models.Booking),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, ord *models.Order, lines []models.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ord
	r.orders[ord.ID] = &cp
	r.lines[ord.ID] = append([]models.OrderLine(nil), lines...)
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

func (r *fakeOrderRepo) GetLines(_ context.Context, orderID string) ([]models.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OrderLine(nil), r.lines[orderID]...), nil
}

func (r *fakeOrderRepo) ListByGuest(_ context.Context, guestID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, ord := range r.orders {
		if ord.GuestID == guestID {
			out = append(out, *ord)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) ListByProperty(_ context.Context, propertyID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, ord := range r.orders {
		if ord.PropertyID == propertyID {
			out = append(out, *ord)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, from []string, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *fakeOrderRepo) ListStaleInitiated(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, ord := range r.orders {
		if ord.Status == models.OrderStatusInitiated && ord.CreatedAt.Before(cutoff) {
			ids = append(ids, ord.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeOrderRepo) ListRecentlyTerminal(_ context.Context, since time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, ord := range r.orders {
		terminal := ord.Status == models.OrderStatusFailed || ord.Status == models.OrderStatusCancelled
		if terminal && !ord.UpdatedAt.Before(since) {
			ids = append(ids, ord.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeSlotRepo covers the slot operations the ledger touches.
type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.AvailabilitySlot
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

func (r *fakeSlotRepo) FindEarliestOpen(context.Context, string, time.Time) (*models.AvailabilitySlot, error) {
	return nil, availabilityRepo.ErrSlotNotFound
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

func (r *fakeSlotRepo) ReserveSlotTransactionally(context.Context, string, *models.Order, []models.OrderLine, *models.Booking) error {
	return nil
}

func newLedger(orders *fakeOrderRepo, slots *fakeSlotRepo) *DefaultLedgerService {
	return &DefaultLedgerService{Orders: orders, Slots: slots, Logger: zap.NewNop()}
}

func TestCreateCartOrderTotals(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newLedger(orders, newFakeSlotRepo())

	lines := []LineInput{
		{ReferenceID: "dish-1", Quantity: 2, Price: 12.50},
		{ReferenceID: "dish-2", Quantity: 1, Price: 4.25},
	}
	orderID, err := svc.CreateCartOrder(context.Background(), "guest-1", "prop-1", lines)
	if err != nil {
		t.Fatalf("CreateCartOrder failed: %v", err)
	}

	ord, err := orders.GetByID(context.Background(), orderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if ord.Total != 29.25 {
		t.Errorf("expected total 29.25, got %v", ord.Total)
	}
	if ord.Status != models.OrderStatusInitiated {
		t.Errorf("expected status initiated, got %s", ord.Status)
	}
	got, _ := orders.GetLines(context.Background(), orderID)
	if len(got) != 2 {
		t.Errorf("expected 2 lines, got %d", len(got))
	}
}

func TestCreateCartOrderRejectsBadInput(t *testing.T) {
	svc := newLedger(newFakeOrderRepo(), newFakeSlotRepo())
	ctx := context.Background()

	if _, err := svc.CreateCartOrder(ctx, "guest-1", "prop-1", nil); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("expected ErrEmptyOrder, got %v", err)
	}
	bad := []LineInput{{ReferenceID: "dish-1", Quantity: 0, Price: 5}}
	if _, err := svc.CreateCartOrder(ctx, "guest-1", "prop-1", bad); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("expected ErrInvalidLine for zero quantity, got %v", err)
	}
	bad = []LineInput{{ReferenceID: "dish-1", Quantity: 1, Price: -5}}
	if _, err := svc.CreateCartOrder(ctx, "guest-1", "prop-1", bad); !errors.Is(err, ErrInvalidLine) {
		t.Errorf("expected ErrInvalidLine for negative price, got %v", err)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newLedger(orders, newFakeSlotRepo())
	ctx := context.Background()

	orderID, err := svc.CreateCartOrder(ctx, "guest-1", "prop-1", []LineInput{{ReferenceID: "dish-1", Quantity: 1, Price: 10}})
	if err != nil {
		t.Fatalf("CreateCartOrder failed: %v", err)
	}

	if _, _, err := svc.GetOrder(ctx, "guest-2", orderID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, _, err := svc.GetOrder(ctx, "guest-1", "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
	if _, _, err := svc.GetOrder(ctx, "guest-1", orderID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	orders := newFakeOrderRepo()
	slots := newFakeSlotRepo()
	svc := newLedger(orders, slots)
	ctx := context.Background()

	slots.slots["slot-1"] = &models.AvailabilitySlot{ID: "slot-1", Status: models.SlotStatusBooked}
	orders.orders["ord-1"] = &models.Order{ID: "ord-1", GuestID: "guest-1", Status: models.OrderStatusInitiated}
	orders.bookings["ord-1"] = &models.Booking{ID: "bk-1", OrderID: "ord-1", SlotID: "slot-1"}

	if err := svc.Cancel(ctx, "guest-1", "ord-1"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	ord, _ := orders.GetByID(ctx, "ord-1")
	if ord.Status != models.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", ord.Status)
	}
	slot, _ := slots.GetByID(ctx, "slot-1")
	if slot.Status != models.SlotStatusOpen {
		t.Errorf("expected slot reopened, got %s", slot.Status)
	}
}

func TestCancelLosesToSettlement(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newLedger(orders, newFakeSlotRepo())
	ctx := context.Background()

	orders.orders["ord-1"] = &models.Order{ID: "ord-1", GuestID: "guest-1", Status: models.OrderStatusPaid}

	if err := svc.Cancel(ctx, "guest-1", "ord-1"); !errors.Is(err, ErrCancelConflict) {
		t.Errorf("expected ErrCancelConflict, got %v", err)
	}
	ord, _ := orders.GetByID(ctx, "ord-1")
	if ord.Status != models.OrderStatusPaid {
		t.Errorf("paid order must stay paid, got %s", ord.Status)
	}
}

func TestCancelChecksOwnership(t *testing.T) {
	orders := newFakeOrderRepo()
	svc := newLedger(orders, newFakeSlotRepo())

	orders.orders["ord-1"] = &models.Order{ID: "ord-1", GuestID: "guest-1", Status: models.OrderStatusInitiated}

	if err := svc.Cancel(context.Background(), "guest-2", "ord-1"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestReleaseSettledSlotsReopensStranded(t *testing.T) {
	orders := newFakeOrderRepo()
	slots := newFakeSlotRepo()
	svc := newLedger(orders, slots)
	ctx := context.Background()
	now := time.Now()

	// A failed order whose inline slot release was lost.
	slots.slots["slot-1"] = &models.AvailabilitySlot{ID: "slot-1", Status: models.SlotStatusBooked}
	orders.orders["failed"] = &models.Order{ID: "failed", Status: models.OrderStatusFailed, UpdatedAt: now}
	orders.bookings["failed"] = &models.Booking{ID: "bk-1", OrderID: "failed", SlotID: "slot-1"}

	// A paid order's slot must stay booked.
	slots.slots["slot-2"] = &models.AvailabilitySlot{ID: "slot-2", Status: models.SlotStatusBooked}
	orders.orders["paid"] = &models.Order{ID: "paid", Status: models.OrderStatusPaid, UpdatedAt: now}
	orders.bookings["paid"] = &models.Booking{ID: "bk-2", OrderID: "paid", SlotID: "slot-2"}

	// A cancelled order whose slot was already reopened counts as nothing to do.
	slots.slots["slot-3"] = &models.AvailabilitySlot{ID: "slot-3", Status: models.SlotStatusOpen}
	orders.orders["cancelled"] = &models.Order{ID: "cancelled", Status: models.OrderStatusCancelled, UpdatedAt: now}
	orders.bookings["cancelled"] = &models.Booking{ID: "bk-3", OrderID: "cancelled", SlotID: "slot-3"}

	released, err := svc.ReleaseSettledSlots(ctx, time.Hour)
	if err != nil {
		t.Fatalf("ReleaseSettledSlots failed: %v", err)
	}
	if released != 1 {
		t.Errorf("expected 1 released slot, got %d", released)
	}

	if slot, _ := slots.GetByID(ctx, "slot-1"); slot.Status != models.SlotStatusOpen {
		t.Errorf("stranded slot should reopen, got %s", slot.Status)
	}
	if slot, _ := slots.GetByID(ctx, "slot-2"); slot.Status != models.SlotStatusBooked {
		t.Errorf("paid order's slot must stay booked, got %s", slot.Status)
	}
}

func TestReleaseSettledSlotsHonorsWindow(t *testing.T) {
	orders := newFakeOrderRepo()
	slots := newFakeSlotRepo()
	svc := newLedger(orders, slots)

	slots.slots["slot-1"] = &models.AvailabilitySlot{ID: "slot-1", Status: models.SlotStatusBooked}
	orders.orders["old"] = &models.Order{ID: "old", Status: models.OrderStatusFailed, UpdatedAt: time.Now().Add(-48 * time.Hour)}
	orders.bookings["old"] = &models.Booking{ID: "bk-1", OrderID: "old", SlotID: "slot-1"}

	released, err := svc.ReleaseSettledSlots(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("ReleaseSettledSlots failed: %v", err)
	}
	if released != 0 {
		t.Errorf("orders outside the window must not be scanned, got %d releases", released)
	}
}

func TestExpireStaleSweepsOnlyInitiated(t *testing.T) {
	orders := newFakeOrderRepo()
	slots := newFakeSlotRepo()
	svc := newLedger(orders, slots)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	orders.orders["stale"] = &models.Order{ID: "stale", GuestID: "g", Status: models.OrderStatusInitiated, CreatedAt: old}
	orders.orders["checkout"] = &models.Order{ID: "checkout", GuestID: "g", Status: models.OrderStatusPending, CreatedAt: old}
	orders.orders["fresh"] = &models.Order{ID: "fresh", GuestID: "g", Status: models.OrderStatusInitiated, CreatedAt: time.Now()}

	expired, err := svc.ExpireStale(ctx, time.Hour)
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired order, got %d", expired)
	}

	if ord, _ := orders.GetByID(ctx, "stale"); ord.Status != models.OrderStatusCancelled {
		t.Errorf("stale order should be cancelled, got %s", ord.Status)
	}
	if ord, _ := orders.GetByID(ctx, "checkout"); ord.Status != models.OrderStatusPending {
		t.Errorf("pending order must not be swept, got %s", ord.Status)
	}
	if ord, _ := orders.GetByID(ctx, "fresh"); ord.Status != models.OrderStatusInitiated {
		t.Errorf("fresh order must not be swept, got %s", ord.Status)
	}
}
