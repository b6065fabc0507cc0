package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

// TransactionStore covers the payment transaction rows.
type TransactionStore interface {
	Create(ctx context.Context, txn *entity.PaymentTransaction) error
	Update(ctx context.Context, txn *entity.PaymentTransaction) error
	FindByID(ctx context.Context, id uint64) (*entity.PaymentTransaction, error)
	FindByMerchantTxnID(ctx context.Context, gateway, merchantTxnID string, forUpdate bool) (*entity.PaymentTransaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*entity.PaymentTransaction, error)
	ListDueNotify(ctx context.Context, now time.Time, limit int32) ([]*entity.PaymentTransaction, error)
}

// LedgerStore appends immutable monetary movements.
type LedgerStore interface {
	Append(ctx context.Context, entry *entity.PaymentLedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID uint64) ([]*entity.PaymentLedgerEntry, error)
}

type QuoteStore interface {
	FindByID(ctx context.Context, id string, forUpdate bool) (*entity.Quote, error)
	Update(ctx context.Context, quote *entity.Quote) error
}

type GuestSessionStore interface {
	FindByToken(ctx context.Context, token string, forUpdate bool) (*entity.GuestCheckoutSession, error)
	Update(ctx context.Context, session *entity.GuestCheckoutSession) error
	ListStaleActive(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.GuestCheckoutSession, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) error
	ExistsForQuote(ctx context.Context, quoteID string) (bool, error)
}

type EventStore interface {
	Create(ctx context.Context, event *entity.TransactionEvent) error
}

type WebhookLogStore interface {
	Create(ctx context.Context, log *entity.WebhookLog) error
	List(ctx context.Context, filter WebhookLogFilter) ([]*entity.WebhookLog, error)
}

// Repos bundles every repository over one DBTX so a reconciliation can run
// all of its writes inside a single database transaction. Fields are
// interfaces so service tests can substitute in-memory fakes.
type Repos struct {
	Transactions TransactionStore
	Ledger       LedgerStore
	Quotes       QuoteStore
	Sessions     GuestSessionStore
	Orders       OrderStore
	Events       EventStore
	WebhookLogs  WebhookLogStore
}

func NewRepos(db DBTX) *Repos {
	return &Repos{
		Transactions: NewTransactionRepository(db),
		Ledger:       NewLedgerRepository(db),
		Quotes:       NewQuoteRepository(db),
		Sessions:     NewGuestSessionRepository(db),
		Orders:       NewOrderRepository(db),
		Events:       NewTransactionEventRepository(db),
		WebhookLogs:  NewWebhookLogRepository(db),
	}
}

// Store owns the database handle and is the only way to open a write
// transaction. Reconciliation runs entirely inside InTransaction so the
// transaction, ledger, quote, session and order writes commit or roll back
// as one unit.
type Store struct {
	db    *sql.DB
	repos *Repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: NewRepos(db)}
}

// Repos returns repositories bound to the pooled connection, for reads and
// best-effort writes that do not need transactional coupling.
func (s *Store) Repos() *Repos {
	return s.repos
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx *Repos) error) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(NewRepos(dbtx)); err != nil {
		_ = dbtx.Rollback()
		return err
	}

	return dbtx.Commit()
}
