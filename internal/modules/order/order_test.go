// README: Order lifecycle tests (state machine + DB-backed flows).
package order

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/apperr"
	"chauffeur/internal/config"
	"chauffeur/internal/infra"
	"chauffeur/internal/logging"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/ledger"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

// TestCanTransition verifies the transition whitelist without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusCreated, StatusDriverAssigned, true},
		{StatusDriverAssigned, StatusConfirmed, true},
		{StatusConfirmed, StatusEnRoute, true},
		{StatusEnRoute, StatusArrived, true},
		{StatusArrived, StatusStarted, true},
		{StatusStarted, StatusCompleted, true},
		// cancels from every non-terminal state
		{StatusCreated, StatusCancelled, true},
		{StatusDriverAssigned, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusEnRoute, StatusCancelled, true},
		{StatusArrived, StatusCancelled, true},
		{StatusStarted, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusCreated, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCreated, false},
		// invalid: skipping states
		{StatusCreated, StatusConfirmed, false},
		{StatusCreated, StatusCompleted, false},
		{StatusDriverAssigned, StatusEnRoute, false},
		{StatusConfirmed, StatusArrived, false},
		{StatusEnRoute, StatusStarted, false},
		{StatusArrived, StatusCompleted, false},
		// invalid: no going backwards
		{StatusConfirmed, StatusDriverAssigned, false},
		{StatusStarted, StatusEnRoute, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderFlowHappyPath(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	if o.Status != StatusCreated {
		t.Fatalf("expected status created, got %s", o.Status)
	}
	if o.EstimatedPrice != 7980 {
		t.Fatalf("expected estimated price 7980, got %d", o.EstimatedPrice)
	}
	if o.Commission != 1995 {
		t.Fatalf("expected commission 1995, got %d", o.Commission)
	}
	if !strings.HasPrefix(o.Number, "CH-") {
		t.Fatalf("expected order number with CH- prefix, got %q", o.Number)
	}

	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	driverP := types.Principal{UserID: d.UserID, Role: types.RoleDriver}

	mustTransition(t, env, o.ID, StatusConfirmed, TransitionMeta{}, clientP)
	mustTransition(t, env, o.ID, StatusEnRoute, TransitionMeta{
		DriverLocation: &types.Point{Lat: 55.75, Lng: 37.61},
	}, driverP)
	mustTransition(t, env, o.ID, StatusArrived, TransitionMeta{}, driverP)
	mustTransition(t, env, o.ID, StatusStarted, TransitionMeta{}, driverP)

	rating := 5.0
	got := mustTransition(t, env, o.ID, StatusCompleted, TransitionMeta{
		Rating:            &rating,
		AdditionalCharges: 500,
	}, driverP)

	if got.ActualPrice == nil || *got.ActualPrice != 8480 {
		t.Fatalf("expected actual price 8480, got %v", got.ActualPrice)
	}

	fresh, err := env.orders.store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if fresh.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s", fresh.Status)
	}
	if fresh.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if fresh.Rating == nil || *fresh.Rating != 5 {
		t.Fatalf("expected order rating 5, got %v", fresh.Rating)
	}

	settled, err := env.drivers.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if settled.Status != driver.StatusOnline {
		t.Fatalf("expected driver back online, got %s", settled.Status)
	}
	if settled.TotalRides != d.TotalRides+1 {
		t.Fatalf("expected total rides %d, got %d", d.TotalRides+1, settled.TotalRides)
	}
	if settled.CommissionBalance != 1995 {
		t.Fatalf("expected commission balance 1995, got %d", settled.CommissionBalance)
	}
	// (4.8*10 + 5) / 11 rounded to two decimals
	if settled.Rating != 4.82 {
		t.Fatalf("expected driver rating 4.82, got %v", settled.Rating)
	}

	bonus, err := env.ledger.BonusBalance(ctx, clientID)
	if err != nil {
		t.Fatalf("bonus balance: %v", err)
	}
	if bonus != 424 { // 5% of 8480
		t.Fatalf("expected bonus balance 424, got %d", bonus)
	}

	// Completing again fails and leaves the settlement untouched.
	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusCompleted, Principal: driverP,
	}); !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
		t.Fatalf("double complete: expected invalid_status_transition, got %v", err)
	}
	again, err := env.drivers.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if again.TotalRides != settled.TotalRides || again.CommissionBalance != settled.CommissionBalance {
		t.Fatal("expected driver settlement unchanged after failed double completion")
	}

	events, err := env.orders.store.Events(ctx, o.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	// created, driver_assigned, confirmed, en_route, arrived, started, completed
	if len(events) != 7 {
		t.Fatalf("expected 7 audit events, got %d", len(events))
	}
	if events[len(events)-1].To != StatusCompleted {
		t.Fatalf("expected last event completed, got %s", events[len(events)-1].To)
	}
}

func TestCreateValidation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	base := CreateCommand{
		ClientID:      newID(),
		Type:          types.OrderHourly,
		CarClass:      types.ClassPremium,
		PickupAt:      time.Now().Add(2 * time.Hour),
		PickupAddress: types.Address{Address: "Tverskaya 1", Lat: 55.757, Lng: 37.614},
		DurationHours: 2,
	}

	t.Run("missing_client", func(t *testing.T) {
		cmd := base
		cmd.ClientID = ""
		if _, err := env.orders.Create(ctx, cmd); !apperr.Is(err, apperr.CodeInvalidRequest) {
			t.Fatalf("expected invalid_request, got %v", err)
		}
	})

	t.Run("pickup_in_past", func(t *testing.T) {
		cmd := base
		cmd.PickupAt = time.Now().Add(-time.Hour)
		if _, err := env.orders.Create(ctx, cmd); !apperr.Is(err, apperr.CodeInvalidRequest) {
			t.Fatalf("expected invalid_request, got %v", err)
		}
	})

	t.Run("unknown_car_class", func(t *testing.T) {
		cmd := base
		cmd.CarClass = "economy"
		if _, err := env.orders.Create(ctx, cmd); !apperr.Is(err, apperr.CodeInvalidRequest) {
			t.Fatalf("expected invalid_request, got %v", err)
		}
	})

	t.Run("duplicate_active_order", func(t *testing.T) {
		cmd := base
		cmd.ClientID = newID()
		if _, err := env.orders.Create(ctx, cmd); err != nil {
			t.Fatalf("first create: %v", err)
		}
		if _, err := env.orders.Create(ctx, cmd); !apperr.Is(err, apperr.CodeInvalidRequest) {
			t.Fatalf("expected invalid_request for duplicate, got %v", err)
		}
	})
}

func TestCreateWithBonusPayment(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	seedBonus(t, env, clientID, 2000)

	cmd := CreateCommand{
		ClientID:      clientID,
		Type:          types.OrderHourly,
		CarClass:      types.ClassPremium,
		PickupAt:      time.Now().Add(2 * time.Hour),
		PickupAddress: types.Address{Address: "Tverskaya 1", Lat: 55.757, Lng: 37.614},
		DurationHours: 2,
		PaymentType:   types.PaymentMixed,
		BonusPayment:  1500,
	}
	o, err := env.orders.Create(ctx, cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.BonusPayment != 1500 {
		t.Fatalf("expected bonus payment 1500, got %d", o.BonusPayment)
	}

	left, err := env.ledger.BonusBalance(ctx, clientID)
	if err != nil {
		t.Fatalf("bonus balance: %v", err)
	}
	if left != 500 {
		t.Fatalf("expected remaining bonus 500, got %d", left)
	}
}

func TestCreateBonusInsufficient(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	seedBonus(t, env, clientID, 100)

	_, err := env.orders.Create(ctx, CreateCommand{
		ClientID:      clientID,
		Type:          types.OrderHourly,
		CarClass:      types.ClassPremium,
		PickupAt:      time.Now().Add(2 * time.Hour),
		PickupAddress: types.Address{Address: "Tverskaya 1", Lat: 55.757, Lng: 37.614},
		DurationHours: 2,
		PaymentType:   types.PaymentMixed,
		BonusPayment:  1500,
	})
	if !apperr.Is(err, apperr.CodeInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}

	// The rolled-back transaction must not leave an order behind.
	active, err := env.orders.store.HasActiveByClient(ctx, clientID)
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if active {
		t.Fatal("expected no order after failed bonus debit")
	}
}

func TestCancellationReasonRequired(t *testing.T) {
	env := setupTest(t)

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	mustTransition(t, env, o.ID, StatusConfirmed, TransitionMeta{}, clientP)

	// From CONFIRMED onward a bare cancel is rejected.
	_, err := env.orders.Cancel(context.Background(), o.ID, "", clientP)
	if !apperr.Is(err, apperr.CodeInvalidRequest) {
		t.Fatalf("expected invalid_request without reason, got %v", err)
	}

	got, err := env.orders.Cancel(context.Background(), o.ID, "plans changed", clientP)
	if err != nil {
		t.Fatalf("cancel with reason: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if got.CancellationReason == nil || *got.CancellationReason != "plans changed" {
		t.Fatalf("expected stored reason, got %v", got.CancellationReason)
	}

	// The assigned driver is released.
	released, err := env.drivers.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if released.Status != driver.StatusOnline {
		t.Fatalf("expected driver online after cancellation, got %s", released.Status)
	}
}

func TestCancelCreatedWithoutReason(t *testing.T) {
	env := setupTest(t)

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)

	got, err := env.orders.Cancel(context.Background(), o.ID, "",
		types.Principal{UserID: clientID, Role: types.RoleClient})
	if err != nil {
		t.Fatalf("cancel created order: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestDriverMayCancelAssignedOrder(t *testing.T) {
	env := setupTest(t)

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	got, err := env.orders.Cancel(context.Background(), o.ID, "car trouble",
		types.Principal{UserID: d.UserID, Role: types.RoleDriver})
	if err != nil {
		t.Fatalf("driver cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestAuthorization(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	strangerClient := types.Principal{UserID: newID(), Role: types.RoleClient}
	strangerDriver := types.Principal{UserID: newID(), Role: types.RoleDriver}
	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	driverP := types.Principal{UserID: d.UserID, Role: types.RoleDriver}

	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusConfirmed, Principal: strangerClient,
	}); !apperr.Is(err, apperr.CodeAuthorizationDenied) {
		t.Fatalf("stranger confirm: expected authorization_denied, got %v", err)
	}

	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusConfirmed, Principal: driverP,
	}); !apperr.Is(err, apperr.CodeAuthorizationDenied) {
		t.Fatalf("driver confirm: expected authorization_denied, got %v", err)
	}

	mustTransition(t, env, o.ID, StatusConfirmed, TransitionMeta{}, clientP)

	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusEnRoute, Principal: clientP,
	}); !apperr.Is(err, apperr.CodeAuthorizationDenied) {
		t.Fatalf("client en_route: expected authorization_denied, got %v", err)
	}
	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusEnRoute, Principal: strangerDriver,
	}); !apperr.Is(err, apperr.CodeAuthorizationDenied) {
		t.Fatalf("stranger driver en_route: expected authorization_denied, got %v", err)
	}

	// Reads are fenced too.
	if _, err := env.orders.Get(ctx, o.ID, strangerClient); !apperr.Is(err, apperr.CodeAuthorizationDenied) {
		t.Fatalf("stranger read: expected authorization_denied, got %v", err)
	}
	if _, err := env.orders.Get(ctx, o.ID, driverP); err != nil {
		t.Fatalf("assigned driver read: %v", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	adminP := types.Principal{UserID: newID(), Role: types.RoleAdmin}

	// DRIVER_ASSIGNED is not reachable through the public transition API.
	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusDriverAssigned, Principal: adminP,
	}); !apperr.Is(err, apperr.CodeInvalidRequest) {
		t.Fatalf("assign via API: expected invalid_request, got %v", err)
	}

	// Skipping states is rejected even for admins.
	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusCompleted, Principal: adminP,
	}); !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
		t.Fatalf("created→completed: expected invalid_status_transition, got %v", err)
	}

	// Rating is only accepted at completion.
	rating := 4.0
	if _, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID: o.ID, To: StatusCancelled, Meta: TransitionMeta{Rating: &rating}, Principal: clientP,
	}); !apperr.Is(err, apperr.CodeInvalidRequest) {
		t.Fatalf("rating on cancel: expected invalid_request, got %v", err)
	}

	// Terminal states stay terminal.
	if _, err := env.orders.Cancel(ctx, o.ID, "", clientP); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.orders.Cancel(ctx, o.ID, "again", clientP); !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
		t.Fatalf("cancel cancelled: expected invalid_status_transition, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	env := setupTest(t)
	_, err := env.orders.Get(context.Background(), types.ID(newID()),
		types.Principal{UserID: newID(), Role: types.RoleAdmin})
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestListByClient(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	first := mustCreateHourlyOrder(t, env, clientID, 2)
	if _, err := env.orders.Cancel(ctx, first.ID, "", clientP); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	second := mustCreateHourlyOrder(t, env, clientID, 3)

	orders, err := env.orders.ListByClient(ctx, clientID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	// Newest first.
	if orders[0].ID != second.ID {
		t.Fatalf("expected newest order first, got %s", orders[0].ID)
	}
}

// --- helpers ---

type testEnv struct {
	pool    *pgxpool.Pool
	orders  *Service
	drivers *driver.Store
	ledger  *ledger.Store
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

func mustCreateHourlyOrder(t *testing.T, env *testEnv, clientID types.ID, hours int) *Order {
	t.Helper()
	o, err := env.orders.Create(context.Background(), CreateCommand{
		ClientID:      clientID,
		Type:          types.OrderHourly,
		CarClass:      types.ClassPremium,
		PickupAt:      time.Now().Add(2 * time.Hour),
		PickupAddress: types.Address{Address: "Tverskaya 1", Lat: 55.757, Lng: 37.614},
		DurationHours: hours,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func mustCreateOnlineDriver(t *testing.T, env *testEnv, class types.CarClass) *driver.Driver {
	t.Helper()
	ctx := context.Background()
	d := &driver.Driver{
		ID:         newID(),
		UserID:     newID(),
		CarClass:   class,
		Status:     driver.StatusOffline,
		Rating:     4.8,
		TotalRides: 10,
		Car:        driver.CarInfo{Model: "Mercedes E-Class", Plate: "A100AA", Year: 2022, Color: "black"},
		CreatedAt:  time.Now().UTC(),
	}
	if err := env.drivers.Create(ctx, d); err != nil {
		t.Fatalf("create driver: %v", err)
	}
	ok, err := env.drivers.SetStatus(ctx, env.pool, d.ID, driver.StatusOffline, driver.StatusOnline)
	if err != nil || !ok {
		t.Fatalf("set driver online: ok=%v err=%v", ok, err)
	}
	d.Status = driver.StatusOnline
	return d
}

// mustAssign performs the assignment write path directly against the stores:
// driver to BUSY, order to DRIVER_ASSIGNED, in one transaction.
func mustAssign(t *testing.T, env *testEnv, o *Order, d *driver.Driver) {
	t.Helper()
	ctx := context.Background()
	err := infra.WithTx(ctx, env.pool, func(tx pgx.Tx) error {
		if ok, err := env.drivers.SetStatus(ctx, tx, d.ID, driver.StatusOnline, driver.StatusBusy); err != nil || !ok {
			return fmt.Errorf("driver to busy: ok=%v err=%v", ok, err)
		}
		if ok, err := env.orders.store.UpdateStatus(ctx, tx, o.ID, StatusCreated, StatusDriverAssigned, o.StatusVersion, &d.ID); err != nil || !ok {
			return fmt.Errorf("order to driver_assigned: ok=%v err=%v", ok, err)
		}
		return env.orders.store.AppendEvent(ctx, tx, &Event{
			OrderID: o.ID, From: StatusCreated, To: StatusDriverAssigned,
			ActorType: "system", CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	o.Status = StatusDriverAssigned
	o.StatusVersion++
	o.DriverID = &d.ID
}

func mustTransition(t *testing.T, env *testEnv, id types.ID, to Status, meta TransitionMeta, p types.Principal) *Order {
	t.Helper()
	o, err := env.orders.UpdateStatus(context.Background(), UpdateStatusCommand{
		OrderID: id, To: to, Meta: meta, Principal: p,
	})
	if err != nil {
		t.Fatalf("transition to %s: %v", to, err)
	}
	if o.Status != to {
		t.Fatalf("expected status %s, got %s", to, o.Status)
	}
	return o
}

func seedBonus(t *testing.T, env *testEnv, clientID types.ID, amount int64) {
	t.Helper()
	err := infra.WithTx(context.Background(), env.pool, func(tx pgx.Tx) error {
		return env.ledger.CreditBonus(context.Background(), tx, clientID, amount)
	})
	if err != nil {
		t.Fatalf("seed bonus: %v", err)
	}
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("CHAUFFEUR_TEST_DSN")
	if dsn == "" {
		t.Skip("CHAUFFEUR_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := applyMigration(ctx, pool); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"TRUNCATE TABLE order_status_events, ledger_entries, orders, drivers, clients"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	driverStore := driver.NewStore(pool)
	ledgerStore := ledger.NewStore(pool)
	orderStore := NewStore(pool)
	svc := NewService(pool, orderStore, nil, driverStore, ledgerStore,
		pricing.NewService(cfg.Pricing), nil, logging.Nop())

	return &testEnv{pool: pool, orders: svc, drivers: driverStore, ledger: ledgerStore}
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
