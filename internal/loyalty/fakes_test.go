package loyalty

import (
	"context"
	"log/slog"
	"time"

	"github.com/dinehall-loyalty-service/internal/domain/order"
	"github.com/dinehall-loyalty-service/internal/domain/outbox"
	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/shared"
	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory fakes backing the service tests. The scenarios exercise balances
// evolving across several calls, so the fakes keep real state instead of
// scripted expectations. WithTx returns the fake itself; fakeTxRunner passes
// a nil tx straight through.

type fakeTxRunner struct {
	beginErr error
	calls    int
}

func (r *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.calls++
	if r.beginErr != nil {
		return r.beginErr
	}
	return fn(nil)
}

type fakeAccountRepo struct {
	accounts  map[uuid.UUID]*points.Account // keyed by user id
	committed map[uuid.UUID]int             // row version by account id, as persisted
	updateErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:  make(map[uuid.UUID]*points.Account),
		committed: make(map[uuid.UUID]int),
	}
}

func (r *fakeAccountRepo) seed(userID uuid.UUID, balance int64) *points.Account {
	acct := points.NewAccount(userID)
	acct.Balance = balance
	r.accounts[userID] = acct
	r.committed[acct.ID] = acct.Version
	return acct
}

func (r *fakeAccountRepo) CreateIfAbsent(ctx context.Context, userID uuid.UUID) error {
	if _, ok := r.accounts[userID]; !ok {
		acct := points.NewAccount(userID)
		r.accounts[userID] = acct
		r.committed[acct.ID] = acct.Version
	}
	return nil
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*points.Account, error) {
	acct, ok := r.accounts[userID]
	if !ok {
		return nil, points.ErrAccountNotFound{UserID: userID}
	}
	return acct, nil
}

func (r *fakeAccountRepo) LockByUserID(ctx context.Context, userID uuid.UUID) (*points.Account, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *fakeAccountRepo) LockByID(ctx context.Context, id uuid.UUID) (*points.Account, error) {
	for _, acct := range r.accounts {
		if acct.ID == id {
			return acct, nil
		}
	}
	return nil, points.ErrAccountNotFound{}
}

// Update enforces the same optimistic check as the SQL implementation,
// which matches the row only when its version equals acct.Version-1.
func (r *fakeAccountRepo) Update(ctx context.Context, acct *points.Account) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.committed[acct.ID] != acct.Version-1 {
		return points.ErrConcurrentModification{AccountID: acct.ID}
	}
	r.committed[acct.ID] = acct.Version
	return nil
}

func (r *fakeAccountRepo) WithTx(tx pgx.Tx) points.AccountRepository { return r }

type fakeLedgerRepo struct {
	entries   []*points.Entry
	createErr error
}

func (r *fakeLedgerRepo) Create(ctx context.Context, entry *points.Entry) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) PendingReserveByAccount(ctx context.Context, accountID uuid.UUID) (*points.Entry, error) {
	for _, e := range r.entries {
		if e.AccountID == accountID && e.IsPendingReserve() {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) PendingReserveByOrder(ctx context.Context, orderID uuid.UUID) (*points.Entry, error) {
	for _, e := range r.entries {
		if e.OrderID != nil && *e.OrderID == orderID && e.IsPendingReserve() {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) HasAccrualForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, e := range r.entries {
		if e.OrderID != nil && *e.OrderID == orderID && e.Kind == points.EntryKindAdd {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) UpdateDisposition(ctx context.Context, entry *points.Entry) error {
	// Entries are shared pointers, the transition already happened in memory
	return nil
}

func (r *fakeLedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, filter points.HistoryFilter) ([]*points.Entry, error) {
	var out []*points.Entry
	for _, e := range r.entries {
		if e.AccountID == accountID && matchesFilter(e, filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) CountByAccount(ctx context.Context, accountID uuid.UUID, filter points.HistoryFilter) (int64, error) {
	entries, _ := r.ListByAccount(ctx, accountID, filter)
	return int64(len(entries)), nil
}

func (r *fakeLedgerRepo) WithTx(tx pgx.Tx) points.LedgerRepository { return r }

func matchesFilter(e *points.Entry, filter points.HistoryFilter) bool {
	if len(filter.Kinds) > 0 {
		found := false
		for _, k := range filter.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// byKind returns the entries of the given kind, oldest first
func (r *fakeLedgerRepo) byKind(kind points.EntryKind) []*points.Entry {
	var out []*points.Entry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*order.Order
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) seed(slug string, userID uuid.UUID, status order.Status, subtotal int64) *order.Order {
	o := &order.Order{
		ID:          uuid.New(),
		Slug:        slug,
		UserID:      userID,
		Status:      status,
		Subtotal:    subtotal,
		FinalAmount: subtotal,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.orders[o.ID] = o
	return o
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound{ID: id}
	}
	return o, nil
}

func (r *fakeOrderRepo) GetBySlug(ctx context.Context, slug string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, order.ErrOrderNotFound{Slug: slug}
}

func (r *fakeOrderRepo) UpdatePointsApplied(ctx context.Context, o *order.Order) error {
	return r.updateErr
}

func (r *fakeOrderRepo) WithTx(tx pgx.Tx) order.Repository { return r }

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *fakeUserRepo) seed(slug string, role user.Role) *user.User {
	u := &user.User{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      slug,
		Role:      role,
		CreatedAt: time.Now(),
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound{ID: id}
	}
	return u, nil
}

func (r *fakeUserRepo) GetBySlug(ctx context.Context, slug string) (*user.User, error) {
	for _, u := range r.users {
		if u.Slug == slug {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound{Slug: slug}
}

type fakeOutboxRepo struct {
	messages  []*outbox.Message
	createErr error
}

func (r *fakeOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	message.ID = int64(len(r.messages) + 1)
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return nil
}

func (r *fakeOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error { return nil }

func (r *fakeOutboxRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *fakeOutboxRepo) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*outbox.Message, error) {
	for _, m := range r.messages {
		if m.EntryID == entryID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository { return r }

type staticPercent int

func (p staticPercent) AccrualPercent() int { return int(p) }

// testEnv bundles the service under test with its fakes
type testEnv struct {
	svc      *Service
	runner   *fakeTxRunner
	accounts *fakeAccountRepo
	ledger   *fakeLedgerRepo
	orders   *fakeOrderRepo
	users    *fakeUserRepo
	outbox   *fakeOutboxRepo
}

const testWalkInSlug = "walk-in"

func newTestEnv(percent int) *testEnv {
	env := &testEnv{
		runner:   &fakeTxRunner{},
		accounts: newFakeAccountRepo(),
		ledger:   &fakeLedgerRepo{},
		orders:   newFakeOrderRepo(),
		users:    newFakeUserRepo(),
		outbox:   &fakeOutboxRepo{},
	}
	env.svc = NewService(
		slog.Default(),
		env.runner,
		env.accounts,
		env.ledger,
		env.orders,
		env.users,
		env.outbox,
		NewEligibilityGate(testWalkInSlug),
		staticPercent(percent),
	)
	return env
}
