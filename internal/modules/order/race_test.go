// README: Concurrency tests for order state transitions (run with -race).
package order

import (
	"context"
	"sync"
	"testing"

	"chauffeur/internal/apperr"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/types"
)

func TestConcurrentCancelSameOrder(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.orders.Cancel(ctx, o.ID, "", clientP)
			errs <- err
		}()
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful cancel, got %d", success)
	}

	final, err := env.orders.store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", final.Status)
	}
	if final.StatusVersion != o.StatusVersion+1 {
		t.Fatalf("expected exactly one version bump, got %d", final.StatusVersion)
	}
}

func TestConcurrentConfirmVsCancel(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
			OrderID: o.ID, To: StatusConfirmed, Principal: clientP,
		})
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.orders.Cancel(ctx, o.ID, "changed my mind", clientP)
		errs <- err
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Both can succeed when cancel lands after confirm (CONFIRMED allows
	// cancellation too); never zero.
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	final, err := env.orders.store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusConfirmed && final.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", final.Status)
	}
}

func TestConcurrentCompleteVsCancel(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	clientID := newID()
	o := mustCreateHourlyOrder(t, env, clientID, 2)
	d := mustCreateOnlineDriver(t, env, types.ClassPremium)
	mustAssign(t, env, o, d)

	clientP := types.Principal{UserID: clientID, Role: types.RoleClient}
	driverP := types.Principal{UserID: d.UserID, Role: types.RoleDriver}

	mustTransition(t, env, o.ID, StatusConfirmed, TransitionMeta{}, clientP)
	mustTransition(t, env, o.ID, StatusEnRoute, TransitionMeta{}, driverP)
	mustTransition(t, env, o.ID, StatusArrived, TransitionMeta{}, driverP)
	mustTransition(t, env, o.ID, StatusStarted, TransitionMeta{}, driverP)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.orders.UpdateStatus(ctx, UpdateStatusCommand{
			OrderID: o.ID, To: StatusCompleted, Principal: driverP,
		})
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.orders.Cancel(ctx, o.ID, "emergency", clientP)
		errs <- err
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !apperr.Is(err, apperr.CodeInvalidStatusTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	final, err := env.orders.store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusCompleted && final.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", final.Status)
	}

	// The driver ends ONLINE either way: completion and cancellation both
	// release the busy flag exactly once.
	released, err := env.drivers.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if released.Status != driver.StatusOnline {
		t.Fatalf("expected driver online, got %s", released.Status)
	}
}
