package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"arbigrid/backend/services/market-service/internal/ledger"
)

// ErrStatusConflict is returned when a stored transaction is no longer pending.
var ErrStatusConflict = errors.New("repository: transaction is not pending")

// MarketRepository persists listings, transactions and escrow balances.
// Writes are merges so that they commute: listings only ever deactivate,
// settlements carry the sold listing and balances move by deltas.
type MarketRepository struct {
	db *sql.DB
}

// NewMarketRepository returns repository.
func NewMarketRepository(db *sql.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const upsertListing = `
	INSERT INTO listings (id, seller, quantity, unit_price, total_price, duration_ns, created_at, active, state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		state = CASE WHEN listings.active AND NOT EXCLUDED.active THEN EXCLUDED.state ELSE listings.state END,
		active = listings.active AND EXCLUDED.active
`

// SaveListing inserts a listing or merges its closed state into the stored row.
// A row never reopens, so a late insert of the freshly created listing cannot
// undo a close that was written first.
func (r *MarketRepository) SaveListing(ctx context.Context, l ledger.Listing) error {
	if err := saveListing(ctx, r.db, l); err != nil {
		return fmt.Errorf("repository: save listing %d: %w", l.ID, err)
	}
	return nil
}

func saveListing(ctx context.Context, ex execer, l ledger.Listing) error {
	_, err := ex.ExecContext(ctx, upsertListing,
		l.ID,
		string(l.Seller),
		l.Quantity,
		amountArg(l.UnitPrice),
		amountArg(l.TotalPrice),
		int64(l.Duration),
		l.CreatedAt,
		l.Active,
		string(l.State),
	)
	return err
}

// SaveSettlement records a completed purchase atomically: the sold listing is
// upserted, the transaction inserted and escrow credits applied.
func (r *MarketRepository) SaveSettlement(ctx context.Context, l ledger.Listing, tx ledger.Transaction, credits []ledger.Credit) error {
	err := r.inTx(ctx, func(sqlTx *sql.Tx) error {
		if err := saveListing(ctx, sqlTx, l); err != nil {
			return err
		}
		const insert = `
			INSERT INTO transactions (id, listing_id, buyer, seller, amount, gross_price, platform_fee, net_amount, change, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING
		`
		if _, err := sqlTx.ExecContext(ctx, insert,
			tx.ID,
			tx.ListingID,
			string(tx.Buyer),
			string(tx.Seller),
			tx.Amount,
			amountArg(tx.GrossPrice),
			amountArg(tx.PlatformFee),
			amountArg(tx.NetAmount),
			amountArg(tx.Change),
			string(tx.Status),
			tx.Timestamp,
		); err != nil {
			return err
		}
		return applyCredits(ctx, sqlTx, credits)
	})
	if err != nil {
		return fmt.Errorf("repository: save settlement %d: %w", tx.ID, err)
	}
	return nil
}

// SaveStatus moves a stored pending transaction to tx.Status and applies
// credits in the same database transaction.
func (r *MarketRepository) SaveStatus(ctx context.Context, tx ledger.Transaction, credits []ledger.Credit) error {
	err := r.inTx(ctx, func(sqlTx *sql.Tx) error {
		const update = `
			UPDATE transactions SET status = $2
			WHERE id = $1 AND status = 'pending'
		`
		res, err := sqlTx.ExecContext(ctx, update, tx.ID, string(tx.Status))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStatusConflict
		}
		return applyCredits(ctx, sqlTx, credits)
	})
	if err != nil {
		return fmt.Errorf("repository: save status of %d: %w", tx.ID, err)
	}
	return nil
}

// SaveDeposit credits amount to account.
func (r *MarketRepository) SaveDeposit(ctx context.Context, account ledger.Account, amount *big.Int) error {
	if err := applyCredits(ctx, r.db, []ledger.Credit{{Account: account, Amount: amount}}); err != nil {
		return fmt.Errorf("repository: save deposit: %w", err)
	}
	return nil
}

// SaveWithdrawal debits amount from account.
func (r *MarketRepository) SaveWithdrawal(ctx context.Context, account ledger.Account, amount *big.Int) error {
	const query = `
		UPDATE balances SET balance = balance - $2::numeric
		WHERE account = $1 AND balance >= $2::numeric
	`
	res, err := r.db.ExecContext(ctx, query, string(account), amountArg(amount))
	if err != nil {
		return fmt.Errorf("repository: save withdrawal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("repository: save withdrawal: no balance row for %s", account)
	}
	return nil
}

func applyCredits(ctx context.Context, ex execer, credits []ledger.Credit) error {
	const query = `
		INSERT INTO balances (account, balance) VALUES ($1, $2::numeric)
		ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
	`
	for _, c := range credits {
		if _, err := ex.ExecContext(ctx, query, string(c.Account), amountArg(c.Amount)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the full market state.
func (r *MarketRepository) Load(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	var err error

	if snap.Listings, err = r.loadListings(ctx); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("repository: load listings: %w", err)
	}
	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("repository: load transactions: %w", err)
	}
	if snap.Balances, err = r.loadBalances(ctx); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("repository: load balances: %w", err)
	}
	return snap, nil
}

func (r *MarketRepository) loadListings(ctx context.Context) ([]ledger.Listing, error) {
	const query = `
		SELECT id, seller, quantity, unit_price::text, total_price::text, duration_ns, created_at, active, state
		FROM listings
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []ledger.Listing
	for rows.Next() {
		var (
			l                ledger.Listing
			seller, state    string
			unitPrice, total string
			durationNs       int64
		)
		if err := rows.Scan(
			&l.ID,
			&seller,
			&l.Quantity,
			&unitPrice,
			&total,
			&durationNs,
			&l.CreatedAt,
			&l.Active,
			&state,
		); err != nil {
			return nil, err
		}
		l.Seller = ledger.Account(seller)
		l.State = ledger.ListingState(state)
		l.Duration = time.Duration(durationNs)
		l.CreatedAt = l.CreatedAt.UTC()
		if l.UnitPrice, err = parseAmount(unitPrice); err != nil {
			return nil, err
		}
		if l.TotalPrice, err = parseAmount(total); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *MarketRepository) loadTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	const query = `
		SELECT id, listing_id, buyer, seller, amount, gross_price::text, platform_fee::text, net_amount::text, change::text, status, created_at
		FROM transactions
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var (
			tx                      ledger.Transaction
			buyer, seller, status   string
			gross, fee, net, change string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.ListingID,
			&buyer,
			&seller,
			&tx.Amount,
			&gross,
			&fee,
			&net,
			&change,
			&status,
			&tx.Timestamp,
		); err != nil {
			return nil, err
		}
		tx.Buyer = ledger.Account(buyer)
		tx.Seller = ledger.Account(seller)
		tx.Status = ledger.TransactionStatus(status)
		tx.Timestamp = tx.Timestamp.UTC()
		for _, f := range []struct {
			dst **big.Int
			raw string
		}{
			{&tx.GrossPrice, gross},
			{&tx.PlatformFee, fee},
			{&tx.NetAmount, net},
			{&tx.Change, change},
		} {
			if *f.dst, err = parseAmount(f.raw); err != nil {
				return nil, err
			}
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *MarketRepository) loadBalances(ctx context.Context) (map[ledger.Account]*big.Int, error) {
	const query = `SELECT account, balance::text FROM balances WHERE balance > 0`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[ledger.Account]*big.Int)
	for rows.Next() {
		var account, raw string
		if err := rows.Scan(&account, &raw); err != nil {
			return nil, err
		}
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, err
		}
		balances[ledger.Account(account)] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *MarketRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// NUMERIC(78,0) values travel as decimal strings.
func amountArg(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric %q", raw)
	}
	return v, nil
}
