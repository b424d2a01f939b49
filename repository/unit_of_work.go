package repository

import (
	"context"
	"errors"
	"fmt"

	"sessionbot/database"
	"sessionbot/events"
	"sessionbot/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                      txBeginner
	tx                      pgx.Tx
	ctx                     context.Context
	transactionalBus        *events.TransactionalBus
	userRepo                service.UserRepository
	balanceHistoryRepo      service.BalanceHistoryRepository
	numberRepo              service.NumberRepository
	paymentRepo             service.PaymentRepository
	reservationRollbackRepo service.ReservationRollbackRepository
	adminRepo               service.AdminRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return newUnitOfWorkFactory(db.Pool, eventBus)
}

func newUnitOfWorkFactory(db txBeginner, eventBus *events.Bus) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       txBeginner
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.numberRepo = newNumberRepositoryWithTx(tx)
	u.paymentRepo = newPaymentRepositoryWithTx(tx)
	u.reservationRollbackRepo = newReservationRollbackRepositoryWithTx(tx)
	u.adminRepo = newAdminRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		if commitRolledBack(err) {
			return fmt.Errorf("failed to commit transaction: %w: %w", service.ErrCommitRolledBack, err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.transactionalBus.Flush()
	return nil
}

// commitRolledBack reports whether a commit error proves nothing was persisted: either the
// server answered COMMIT with an error, or the request never left the client.
func commitRolledBack(err error) bool {
	if errors.Is(err, pgx.ErrTxCommitRollback) || pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}

// Rollback rolls back the transaction. It is safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

const notStarted = "unit of work not started - call Begin() first"

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic(notStarted)
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic(notStarted)
	}
	return u.balanceHistoryRepo
}

// NumberRepository returns the number repository for this unit of work
func (u *unitOfWork) NumberRepository() service.NumberRepository {
	if u.numberRepo == nil {
		panic(notStarted)
	}
	return u.numberRepo
}

// PaymentRepository returns the payment repository for this unit of work
func (u *unitOfWork) PaymentRepository() service.PaymentRepository {
	if u.paymentRepo == nil {
		panic(notStarted)
	}
	return u.paymentRepo
}

// ReservationRollbackRepository returns the rollback audit repository for this unit of work
func (u *unitOfWork) ReservationRollbackRepository() service.ReservationRollbackRepository {
	if u.reservationRollbackRepo == nil {
		panic(notStarted)
	}
	return u.reservationRollbackRepo
}

// AdminRepository returns the admin repository for this unit of work
func (u *unitOfWork) AdminRepository() service.AdminRepository {
	if u.adminRepo == nil {
		panic(notStarted)
	}
	return u.adminRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(notStarted)
	}
	return u.transactionalBus
}
