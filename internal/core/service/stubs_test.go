package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory shipment repository
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Shipment
	lastScope  ports.Scope
	createErr  error // if set, Create returns this error
	conflicts  int   // number of Create calls that report a tracking conflict first
	creates    int
	updates    int
	updateErr  error
	appendErr  error
	findCalled int
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{byID: make(map[string]*domain.Shipment)}
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	clone := *s
	clone.Images = append([]string(nil), s.Images...)
	if s.Dimensions != nil {
		d := *s.Dimensions
		clone.Dimensions = &d
	}
	if s.ScheduledPickupTime != nil {
		t := *s.ScheduledPickupTime
		clone.ScheduledPickupTime = &t
	}
	if s.EstimatedDeliveryTime != nil {
		t := *s.EstimatedDeliveryTime
		clone.EstimatedDeliveryTime = &t
	}
	return &clone
}

func (r *stubShipmentRepo) put(s *domain.Shipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = cloneShipment(s)
}

func (r *stubShipmentRepo) get(id string) *domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneShipment(r.byID[id])
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrTrackingConflict
	}
	for _, existing := range r.byID {
		if existing.TrackingNumber == s.TrackingNumber {
			return domain.ErrTrackingConflict
		}
	}
	r.byID[s.ID] = cloneShipment(s)
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id string, scope ports.Scope) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalled++
	r.lastScope = scope
	s, ok := r.byID[id]
	if !ok || !scope.Allows(s) {
		return nil, domain.ErrShipmentNotFound
	}
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) FindByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.TrackingNumber == trackingNumber {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) List(_ context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Shipment
	for _, s := range r.byID {
		if !f.Scope.Allows(s) {
			continue
		}
		if f.Status != "" && string(s.Status) != f.Status {
			continue
		}
		matched = append(matched, cloneShipment(s))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Shipment{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubShipmentRepo) Update(_ context.Context, id string, scope ports.Scope, patch ports.ShipmentPatch) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	s, ok := r.byID[id]
	if !ok || !scope.Allows(s) {
		return nil, domain.ErrShipmentNotFound
	}
	patch.ApplyTo(s)
	s.UpdatedAt = time.Now().UTC()
	// Like the real stores, keep instants in UTC.
	for _, t := range []**time.Time{&s.ScheduledPickupTime, &s.EstimatedDeliveryTime} {
		if *t != nil {
			utc := (**t).UTC()
			*t = &utc
		}
	}
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) AppendImages(_ context.Context, id string, scope ports.Scope, urls []string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	s, ok := r.byID[id]
	if !ok || !scope.Allows(s) {
		return nil, domain.ErrShipmentNotFound
	}
	s.Images = append(s.Images, urls...)
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) Stats(_ context.Context) (*ports.ShipmentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &ports.ShipmentStats{}
	for _, s := range r.byID {
		stats.Total++
		switch s.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusDelivered:
			stats.Delivered++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
		if s.PaymentStatus == domain.PaymentPaid {
			stats.Revenue = stats.Revenue.Add(s.Price)
		}
	}
	return stats, nil
}

// blockingCreateRepo signals entered on the first Create and waits for
// proceed before storing.
type blockingCreateRepo struct {
	*stubShipmentRepo
	once    sync.Once
	entered chan struct{}
	proceed chan struct{}
}

func (r *blockingCreateRepo) Create(ctx context.Context, s *domain.Shipment) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.proceed
	}
	return r.stubShipmentRepo.Create(ctx, s)
}

// ---------------------------------------------------------------------------
// Users, price guides
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	createErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *user
	if clone.ID == "" {
		clone.ID = "user-" + user.Email
	}
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

type stubPriceGuideRepo struct {
	guides    map[string]*domain.PriceGuide
	conflicts int
}

func newStubPriceGuideRepo(guides ...*domain.PriceGuide) *stubPriceGuideRepo {
	r := &stubPriceGuideRepo{guides: make(map[string]*domain.PriceGuide)}
	for _, g := range guides {
		r.guides[g.ID] = g
	}
	return r
}

func (r *stubPriceGuideRepo) Create(_ context.Context, g *domain.PriceGuide) error {
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrDuplicateGuideNumber
	}
	clone := *g
	r.guides[g.ID] = &clone
	return nil
}

func (r *stubPriceGuideRepo) FindByID(_ context.Context, id string) (*domain.PriceGuide, error) {
	g, ok := r.guides[id]
	if !ok {
		return nil, domain.ErrPriceGuideNotFound
	}
	clone := *g
	return &clone, nil
}

func (r *stubPriceGuideRepo) List(_ context.Context) ([]*domain.PriceGuide, error) {
	out := make([]*domain.PriceGuide, 0, len(r.guides))
	for _, g := range r.guides {
		clone := *g
		out = append(out, &clone)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Counting notifier
// ---------------------------------------------------------------------------

type notification struct {
	kind      domain.NotificationKind
	recipient string
	account   domain.Account
}

// countingNotifier records every attempt. failKinds makes the matching
// attempts return an error after being recorded.
type countingNotifier struct {
	mu        sync.Mutex
	sent      []notification
	failKinds map[domain.NotificationKind]bool
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{failKinds: make(map[domain.NotificationKind]bool)}
}

var errNotifyFailed = errors.New("smtp unavailable")

func (n *countingNotifier) record(kind domain.NotificationKind, recipient string, account domain.Account) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: kind, recipient: recipient, account: account})
	if n.failKinds[kind] {
		return errNotifyFailed
	}
	return nil
}

func (n *countingNotifier) SendBookingConfirmation(_ context.Context, account domain.Account, _ *domain.Shipment) error {
	return n.record(domain.NotifyBookingConfirmation, account.Email, account)
}

func (n *countingNotifier) SendPaymentConfirmation(_ context.Context, account domain.Account, _ *domain.Shipment) error {
	return n.record(domain.NotifyPaymentConfirmation, account.Email, account)
}

func (n *countingNotifier) SendAdminBookingNotification(_ context.Context, adminAddress string, account domain.Account, _ *domain.Shipment) error {
	return n.record(domain.NotifyAdminBooking, adminAddress, account)
}

func (n *countingNotifier) SendStatusUpdate(_ context.Context, account domain.Account, _ *domain.Shipment) error {
	return n.record(domain.NotifyStatusUpdate, account.Email, account)
}

func (n *countingNotifier) count(kind domain.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.kind == kind {
			c++
		}
	}
	return c
}

func (n *countingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

// ---------------------------------------------------------------------------
// Object storage, idempotency
// ---------------------------------------------------------------------------

type stubStorage struct {
	mu      sync.Mutex
	failOn  map[string]error // filename -> error
	uploads []string
	deleted []string
}

func (s *stubStorage) Upload(_ context.Context, file ports.FileUpload, folder string) (string, error) {
	if err, ok := s.failOn[file.Filename]; ok {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, file.Filename)
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

func (s *stubStorage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

// stubIdempotency mirrors the SETNX reservation of the Redis store. A
// reserved key maps to "" until Complete records the shipment id.
type stubIdempotency struct {
	mu         sync.Mutex
	keys       map[string]string
	reserveErr error
	releases   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, ownerID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return "", false, s.reserveErr
	}
	if id, ok := s.keys[ownerID+"|"+key]; ok {
		return id, false, nil
	}
	s.keys[ownerID+"|"+key] = ""
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, ownerID, key, shipmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[ownerID+"|"+key] = shipmentID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, ownerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, ownerID+"|"+key)
	s.releases++
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var (
	ownerUser  = &domain.User{ID: "user-1", Email: "owner@example.com", FirstName: "Ada", LastName: "Obi", Role: domain.RoleUser}
	otherUser  = &domain.User{ID: "user-2", Email: "other@example.com", FirstName: "Ben", LastName: "Eze", Role: domain.RoleUser}
	driverUser = &domain.User{ID: "driver-1", Email: "driver@example.com", FirstName: "Dan", LastName: "Ray", Role: domain.RoleDriver}

	ownerCaller  = ports.Caller{UserID: ownerUser.ID, Role: domain.RoleUser}
	otherCaller  = ports.Caller{UserID: otherUser.ID, Role: domain.RoleUser}
	driverCaller = ports.Caller{UserID: driverUser.ID, Role: domain.RoleDriver}
	adminCaller  = ports.Caller{UserID: "admin-1", Role: domain.RoleAdmin}
)

type fixture struct {
	svc      *ShipmentService
	repo     *stubShipmentRepo
	users    *stubUserRepo
	guides   *stubPriceGuideRepo
	notifier *countingNotifier
	storage  *stubStorage
	idem     *stubIdempotency
}

func newFixture(adminEmails ...string) *fixture {
	f := &fixture{
		repo:     newStubShipmentRepo(),
		users:    newStubUserRepo(ownerUser, otherUser, driverUser),
		guides:   newStubPriceGuideRepo(),
		notifier: newCountingNotifier(),
		storage:  &stubStorage{failOn: map[string]error{}},
		idem:     newStubIdempotency(),
	}
	f.svc = NewShipmentService(ShipmentDeps{
		Shipments:   f.repo,
		Users:       f.users,
		PriceGuides: f.guides,
		Notifier:    f.notifier,
		Storage:     f.storage,
		Idempotency: f.idem,
		AdminEmails: adminEmails,
	}, discardLogger)
	return f
}

// seed stores a pending shipment owned by ownerUser.
func (f *fixture) seed(id string, mutate ...func(*domain.Shipment)) *domain.Shipment {
	now := time.Now().UTC()
	s := &domain.Shipment{
		ID:                  id,
		TrackingNumber:      "TRK" + id,
		OwnerID:             ownerUser.ID,
		Status:              domain.StatusPending,
		PaymentStatus:       domain.PaymentUnpaid,
		PaymentMethod:       domain.MethodPayPal,
		ReceiverName:        "Grace Hopper",
		ReceiverPhoneNumber: "+2348000000000",
		DeliveryType:        domain.DeliveryHome,
		PackageType:         "box",
		Weight:              2,
		Images:              []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, m := range mutate {
		m(s)
	}
	f.repo.put(s)
	return s
}
