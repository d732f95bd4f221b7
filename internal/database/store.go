package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// IsAdmin reports whether userID has a row in the admins table.
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// GetAdmin retrieves an admin row. Returns nil, nil if not found.
	GetAdmin(ctx context.Context, userID int64) (*Admin, error)

	// ListAdmins returns every admin ordered by added_at.
	ListAdmins(ctx context.Context) ([]Admin, error)

	// InsertAdmin adds an admin row. A duplicate is a no-op and reports inserted=false.
	InsertAdmin(ctx context.Context, admin *Admin) (inserted bool, err error)

	// DeleteAdminsExcept removes every admin row except keepID's.
	DeleteAdminsExcept(ctx context.Context, keepID int64) (int64, error)

	// CountAdmins returns the number of admin rows.
	CountAdmins(ctx context.Context) (int, error)

	// GetCustomer retrieves a customer record. Returns nil, nil if not found.
	GetCustomer(ctx context.Context, userID int64) (*Customer, error)

	// UpsertCustomer inserts or fully replaces a customer record and refreshes its timestamp.
	UpsertCustomer(ctx context.Context, customer *Customer) error

	// DeleteAllCustomers removes every customer record.
	DeleteAllCustomers(ctx context.Context) (int64, error)

	// ListBroadcastRecipients returns the ids of every non-admin customer.
	ListBroadcastRecipients(ctx context.Context) ([]int64, error)

	// ListRecentCustomers returns up to limit non-admin customers, newest first.
	ListRecentCustomers(ctx context.Context, limit int) ([]Customer, error)

	// CountCustomers returns the number of non-admin customers.
	CountCustomers(ctx context.Context) (int, error)

	// SurveyTimeRange returns the first and last non-admin survey timestamps.
	SurveyTimeRange(ctx context.Context) (TimeRange, error)

	// GroupCounts returns non-admin customers grouped by gender, age group and visit frequency.
	GroupCounts(ctx context.Context) ([]GroupCount, error)

	// SaveEnvelope records which customer a relayed message delivered to an admin belongs to.
	SaveEnvelope(ctx context.Context, envelope *Envelope) error

	// FindEnvelope resolves a relayed message back to its customer.
	FindEnvelope(ctx context.Context, adminID int64, messageID int) (customerID int64, found bool, err error)

	// DeleteEnvelopesBefore removes envelope links created before cutoff.
	DeleteEnvelopesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

const customerColumns = `user_id,
	COALESCE(username, '') AS username,
	COALESCE(full_name, '') AS full_name,
	COALESCE(appreciate, '') AS appreciate,
	COALESCE(dislike, '') AS dislike,
	COALESCE(improve, '') AS improve,
	COALESCE(gender, '') AS gender,
	COALESCE(age_group, '') AS age_group,
	COALESCE(visit_freq, '') AS visit_freq,
	COALESCE(is_admin, FALSE) AS is_admin,
	timestamp`

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing on success.
func (s *sqlxStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "op", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "op", op, "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "op", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsAdmin reports whether userID has a row in the admins table.
func (s *sqlxStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM admins WHERE user_id = ?`), userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}
	return count > 0, nil
}

// GetAdmin retrieves an admin row. Returns nil, nil if not found.
func (s *sqlxStore) GetAdmin(ctx context.Context, userID int64) (*Admin, error) {
	var admin Admin
	query := s.db.Rebind(`
        SELECT user_id, COALESCE(username, '') AS username, COALESCE(added_by, 0) AS added_by, added_at
        FROM admins WHERE user_id = ?`)

	err := s.db.GetContext(ctx, &admin, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching admin", "user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting admin by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get admin %d: %w", userID, err)
	}
	return &admin, nil
}

// ListAdmins returns every admin ordered by added_at, resolving the adder's username.
func (s *sqlxStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	query := `
        SELECT a.user_id,
               COALESCE(a.username, '') AS username,
               COALESCE(a.added_by, 0) AS added_by,
               a.added_at,
               COALESCE(b.username, '') AS added_by_username
        FROM admins a
        LEFT JOIN admins b ON b.user_id = a.added_by
        ORDER BY a.added_at ASC, a.user_id ASC`

	if err := s.db.SelectContext(ctx, &admins, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing admins", "error", err)
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// InsertAdmin adds an admin row. A duplicate is a no-op and reports inserted=false.
func (s *sqlxStore) InsertAdmin(ctx context.Context, admin *Admin) (bool, error) {
	if admin == nil {
		return false, fmt.Errorf("cannot insert nil admin")
	}
	if admin.UserID == 0 {
		return false, fmt.Errorf("admin must have a non-zero user_id")
	}

	var inserted bool
	err := s.withTx(ctx, "insert_admin", func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO admins (user_id, username, added_by)
            VALUES (:user_id, :username, :added_by)
            ON CONFLICT (user_id) DO NOTHING`

		result, err := tx.NamedExecContext(ctx, query, admin)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error inserting admin", "user_id", admin.UserID, "error", err)
			return fmt.Errorf("failed to insert admin %d: %w", admin.UserID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		inserted = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.DebugContext(ctx, "Admin insert finished", "user_id", admin.UserID, "inserted", inserted)
	return inserted, nil
}

// DeleteAdminsExcept removes every admin row except keepID's.
func (s *sqlxStore) DeleteAdminsExcept(ctx context.Context, keepID int64) (int64, error) {
	var deleted int64
	err := s.withTx(ctx, "delete_admins", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM admins WHERE user_id <> ?`), keepID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error deleting admins", "keep_id", keepID, "error", err)
			return fmt.Errorf("failed to delete admins: %w", err)
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Deleted admins", "keep_id", keepID, "deleted", deleted)
	return deleted, nil
}

// CountAdmins returns the number of admin rows.
func (s *sqlxStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// GetCustomer retrieves a customer record. Returns nil, nil if not found.
func (s *sqlxStore) GetCustomer(ctx context.Context, userID int64) (*Customer, error) {
	var customer Customer
	query := s.db.Rebind(`SELECT ` + customerColumns + ` FROM clients WHERE user_id = ?`)

	err := s.db.GetContext(ctx, &customer, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No customer record found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching customer", "user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting customer by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get customer %d: %w", userID, err)
	}
	return &customer, nil
}

// UpsertCustomer inserts or fully replaces a customer record and refreshes its timestamp.
func (s *sqlxStore) UpsertCustomer(ctx context.Context, customer *Customer) error {
	if customer == nil {
		return fmt.Errorf("cannot save nil customer")
	}
	if customer.UserID == 0 {
		return fmt.Errorf("customer must have a non-zero user_id")
	}

	err := s.withTx(ctx, "upsert_customer", func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO clients (user_id, username, full_name, appreciate, dislike, improve,
                                 gender, age_group, visit_freq, is_admin, timestamp)
            VALUES (:user_id, :username, :full_name, :appreciate, :dislike, :improve,
                    :gender, :age_group, :visit_freq, :is_admin, CURRENT_TIMESTAMP)
            ON CONFLICT (user_id) DO UPDATE SET
                username = excluded.username,
                full_name = excluded.full_name,
                appreciate = excluded.appreciate,
                dislike = excluded.dislike,
                improve = excluded.improve,
                gender = excluded.gender,
                age_group = excluded.age_group,
                visit_freq = excluded.visit_freq,
                is_admin = excluded.is_admin,
                timestamp = CURRENT_TIMESTAMP`

		if _, err := tx.NamedExecContext(ctx, query, customer); err != nil {
			s.logger.ErrorContext(ctx, "Error saving customer", "user_id", customer.UserID, "error", err)
			return fmt.Errorf("failed to save customer %d: %w", customer.UserID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Customer saved successfully", "user_id", customer.UserID)
	return nil
}

// DeleteAllCustomers removes every customer record.
func (s *sqlxStore) DeleteAllCustomers(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.withTx(ctx, "delete_customers", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM clients`)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error deleting customers", "error", err)
			return fmt.Errorf("failed to delete customers: %w", err)
		}
		deleted, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Deleted all customers", "deleted", deleted)
	return deleted, nil
}

// ListBroadcastRecipients returns the ids of every non-admin customer.
func (s *sqlxStore) ListBroadcastRecipients(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT user_id FROM clients WHERE COALESCE(is_admin, FALSE) = FALSE ORDER BY user_id`
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing broadcast recipients", "error", err)
		return nil, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}
	return ids, nil
}

// ListRecentCustomers returns up to limit non-admin customers, newest first.
func (s *sqlxStore) ListRecentCustomers(ctx context.Context, limit int) ([]Customer, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var customers []Customer
	query := s.db.Rebind(`
        SELECT ` + customerColumns + `
        FROM clients
        WHERE COALESCE(is_admin, FALSE) = FALSE
        ORDER BY timestamp DESC, user_id DESC
        LIMIT ?`)

	if err := s.db.SelectContext(ctx, &customers, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error listing recent customers", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list recent customers: %w", err)
	}
	return customers, nil
}

// CountCustomers returns the number of non-admin customers.
func (s *sqlxStore) CountCustomers(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM clients WHERE COALESCE(is_admin, FALSE) = FALSE`
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

// SurveyTimeRange returns the first and last non-admin survey timestamps.
// Ordered single-row selects keep the column type, which MIN/MAX would lose on SQLite.
func (s *sqlxStore) SurveyTimeRange(ctx context.Context) (TimeRange, error) {
	var tr TimeRange
	base := `SELECT timestamp FROM clients WHERE COALESCE(is_admin, FALSE) = FALSE AND timestamp IS NOT NULL ORDER BY timestamp `

	for _, q := range []struct {
		order string
		dest  *sql.NullTime
	}{
		{"ASC", &tr.First},
		{"DESC", &tr.Last},
	} {
		err := s.db.GetContext(ctx, q.dest, base+q.order+" LIMIT 1")
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return TimeRange{}, fmt.Errorf("failed to read survey time range: %w", err)
		}
	}
	return tr, nil
}

// GroupCounts returns non-admin customers grouped by gender, age group and visit frequency.
func (s *sqlxStore) GroupCounts(ctx context.Context) ([]GroupCount, error) {
	var groups []GroupCount
	query := `
        SELECT COALESCE(gender, '') AS gender,
               COALESCE(age_group, '') AS age_group,
               COALESCE(visit_freq, '') AS visit_freq,
               COUNT(*) AS total
        FROM clients
        WHERE COALESCE(is_admin, FALSE) = FALSE
        GROUP BY 1, 2, 3
        ORDER BY total DESC, 1, 2, 3`

	if err := s.db.SelectContext(ctx, &groups, query); err != nil {
		s.logger.ErrorContext(ctx, "Error grouping customers", "error", err)
		return nil, fmt.Errorf("failed to group customers: %w", err)
	}
	return groups, nil
}

// SaveEnvelope records which customer a relayed message delivered to an admin belongs to.
func (s *sqlxStore) SaveEnvelope(ctx context.Context, envelope *Envelope) error {
	if envelope == nil {
		return fmt.Errorf("cannot save nil envelope")
	}

	query := `
        INSERT INTO relay_envelopes (admin_id, message_id, customer_id)
        VALUES (:admin_id, :message_id, :customer_id)
        ON CONFLICT (admin_id, message_id) DO UPDATE SET customer_id = excluded.customer_id`

	if _, err := s.db.NamedExecContext(ctx, query, envelope); err != nil {
		s.logger.ErrorContext(ctx, "Error saving envelope",
			"admin_id", envelope.AdminID, "message_id", envelope.MessageID, "error", err)
		return fmt.Errorf("failed to save envelope: %w", err)
	}
	return nil
}

// FindEnvelope resolves a relayed message back to its customer.
func (s *sqlxStore) FindEnvelope(ctx context.Context, adminID int64, messageID int) (int64, bool, error) {
	var customerID int64
	query := s.db.Rebind(`SELECT customer_id FROM relay_envelopes WHERE admin_id = ? AND message_id = ?`)

	err := s.db.GetContext(ctx, &customerID, query, adminID, messageID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error finding envelope", "admin_id", adminID, "message_id", messageID, "error", err)
		return 0, false, fmt.Errorf("failed to find envelope: %w", err)
	}
	return customerID, true, nil
}

// DeleteEnvelopesBefore removes envelope links created before cutoff.
func (s *sqlxStore) DeleteEnvelopesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := s.db.Rebind(`DELETE FROM relay_envelopes WHERE created_at < ?`)

	result, err := s.db.ExecContext(ctx, query, s.timeArg(cutoff))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning envelopes", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune envelopes: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// timeArg formats t the way the driver compares it against CURRENT_TIMESTAMP defaults.
func (s *sqlxStore) timeArg(t time.Time) any {
	if s.db.DriverName() == "sqlite" {
		return t.UTC().Format("2006-01-02 15:04:05")
	}
	return t.UTC()
}

// RunSQLMaintenance runs VACUUM on SQLite. Postgres relies on autovacuum.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	if s.db.DriverName() != "sqlite" {
		s.logger.InfoContext(ctx, "Skipping VACUUM, driver manages maintenance itself", "driver", s.db.DriverName())
		return nil
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}
	return nil
}
