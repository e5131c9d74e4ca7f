// README: Driver service: registration and the driver-facing status graph.
package driver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chauffeur/internal/apperr"
	"chauffeur/internal/logging"
	"chauffeur/internal/types"
)

type Service struct {
	store *Store
	log   logging.Logger
}

func NewService(store *Store, log logging.Logger) *Service {
	return &Service{store: store, log: log}
}

type RegisterCommand struct {
	UserID   types.ID
	CarClass types.CarClass
	Car      CarInfo
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.UserID == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "user id is required")
	}
	if !cmd.CarClass.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidRequest, "unknown car class %q", cmd.CarClass)
	}
	d := &Driver{
		ID:        types.ID(uuid.NewString()),
		UserID:    cmd.UserID,
		CarClass:  cmd.CarClass,
		Status:    StatusOffline,
		Car:       cmd.Car,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		s.log.Error("driver create failed", logging.String("user_id", string(cmd.UserID)), logging.Error(err))
		return nil, apperr.Wrap(apperr.CodePersistenceFailure, "create driver", err)
	}
	s.log.Info("driver registered",
		logging.String("driver_id", string(d.ID)),
		logging.String("car_class", string(d.CarClass)))
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

// SetStatus applies a driver-initiated status change. BUSY is owned by the
// order lifecycle, so requesting it here is rejected by the graph; going
// OFFLINE is additionally rejected while the driver holds an active order.
func (s *Service) SetStatus(ctx context.Context, id types.ID, to Status, principal types.Principal) (*Driver, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Role != types.RoleAdmin && principal.UserID != d.UserID {
		return nil, apperr.New(apperr.CodeAuthorizationDenied, "only the driver may change own status")
	}
	if to == StatusBusy {
		return nil, apperr.New(apperr.CodeInvalidRequest, "busy status is set by the order lifecycle")
	}
	if !CanTransition(d.Status, to) {
		return nil, apperr.Newf(apperr.CodeInvalidStatusTransition,
			"driver cannot go from %s to %s", d.Status, to)
	}
	if to == StatusOffline {
		active, err := s.store.HasActiveOrder(ctx, s.store.db, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePersistenceFailure, "check active order", err)
		}
		if active {
			return nil, apperr.New(apperr.CodeInvalidRequest, "cannot go offline with an active order")
		}
	}
	ok, err := s.store.SetStatus(ctx, s.store.db, id, d.Status, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistenceFailure, "update driver status", err)
	}
	if !ok {
		return nil, apperr.Newf(apperr.CodeInvalidStatusTransition,
			"driver status changed concurrently, no longer %s", d.Status)
	}
	d.Status = to
	s.log.Info("driver status updated",
		logging.String("driver_id", string(id)),
		logging.String("status", string(to)))
	return d, nil
}
