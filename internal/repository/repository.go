// Package repository provides PostgreSQL persistence for invoices, connected
// accounts and the inquiry/appointment records invoices are composed from.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evanperkins/frontdesk/internal/domain"
)

// ErrNotFound is returned when a query matches no rows. Callers translate it
// into their own domain errors; pgx.ErrNoRows never escapes this package.
var ErrNotFound = errors.New("repository: not found")

// Querier is the persistence interface consumed by services. The *Store
// implementation runs against PostgreSQL; tests substitute in-memory fakes.
type Querier interface {
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error)
	GetInvoiceForUser(ctx context.Context, params GetInvoiceForUserParams) (*domain.Invoice, error)
	GetInvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*domain.Invoice, error)
	ListInvoicesForUser(ctx context.Context, params ListInvoicesForUserParams) ([]domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, params UpdateInvoiceStatusParams) (*domain.Invoice, error)

	UpsertConnectedAccount(ctx context.Context, params UpsertConnectedAccountParams) (*domain.ConnectedAccount, error)
	GetConnectedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.ConnectedAccount, error)

	GetInquiryForUser(ctx context.Context, params GetInquiryForUserParams) (*domain.Inquiry, error)
	ListInquiriesForUser(ctx context.Context, params ListInquiriesForUserParams) ([]domain.Inquiry, error)
	GetAppointmentForUser(ctx context.Context, params GetAppointmentForUserParams) (*domain.Appointment, error)
	ListAppointmentsForUser(ctx context.Context, params ListAppointmentsForUserParams) ([]domain.Appointment, error)
}

// Store implements Querier against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure Store implements Querier.
var _ Querier = (*Store)(nil)

// NewStore creates a new Store instance.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewPool creates a pgx connection pool with the NUMERIC -> shopspring/decimal
// codec registered on every connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
