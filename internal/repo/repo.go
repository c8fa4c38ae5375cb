package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"genesis/internal/model"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
)

type ListFilter struct {
	CandidateStatus string // empty or "all" means no filter
	Search          string // substring match on full_name / email
	Page            int
	Limit           int
}

type Repository interface {
	GetRegistrationByEmail(ctx context.Context, email string) (*model.Registration, error)
	GetRegistrationByOrderID(ctx context.Context, orderID string) (*model.Registration, error)
	UpsertPendingRegistration(ctx context.Context, reg *model.Registration) (int64, error)
	MarkPaymentSuccess(ctx context.Context, orderID, transactionID string) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID string) error
	ListRegistrations(ctx context.Context, filter ListFilter) ([]model.Registration, int, error)
	UpdateCandidateStatus(ctx context.Context, id int64, status string) error
	ListAssessmentRecipients(ctx context.Context) ([]model.Registration, error)
	CreateContactMessage(ctx context.Context, msg *model.ContactMessage) (int64, error)
	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

const registrationColumns = `
	id, full_name, email, phone, order_id, payment_status,
	transaction_id, payment_date, candidate_status, created_at, updated_at
`

func scanRegistration(row interface{ Scan(...any) error }) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID,
		&reg.FullName,
		&reg.Email,
		&reg.Phone,
		&reg.OrderID,
		&reg.PaymentStatus,
		&reg.TransactionID,
		&reg.PaymentDate,
		&reg.CandidateStatus,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) GetRegistrationByEmail(ctx context.Context, email string) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM hackathon_registrations
		WHERE email = $1
	`
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration by email: %w", err)
	}
	return reg, nil
}

func (r *repository) GetRegistrationByOrderID(ctx context.Context, orderID string) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM hackathon_registrations
		WHERE order_id = $1
	`
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration by order id: %w", err)
	}
	return reg, nil
}

// UpsertPendingRegistration inserts a fresh pending row or, when the email is
// already known, overwrites the stale order id and resets the payment status
// to pending. The unique index on email keeps this to one row per
// participant.
func (r *repository) UpsertPendingRegistration(ctx context.Context, reg *model.Registration) (int64, error) {
	query := `
		INSERT INTO hackathon_registrations
			(full_name, email, phone, order_id, payment_status, candidate_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			full_name      = EXCLUDED.full_name,
			phone          = EXCLUDED.phone,
			order_id       = EXCLUDED.order_id,
			payment_status = 'pending',
			updated_at     = NOW()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		reg.FullName, reg.Email, reg.Phone, reg.OrderID, model.DefaultCandidateStatus,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert registration: %w", err)
	}
	return id, nil
}

// MarkPaymentSuccess flips the registration to success, recording the
// transaction id and payment timestamp. The status guard in the WHERE clause
// makes the transition conditional at the storage layer: a second success
// event for the same order affects zero rows, and success is never
// downgraded. Returns whether this call performed the transition.
func (r *repository) MarkPaymentSuccess(ctx context.Context, orderID, transactionID string) (bool, error) {
	query := `
		UPDATE hackathon_registrations
		SET payment_status = 'success',
		    transaction_id = $2,
		    payment_date   = NOW(),
		    updated_at     = NOW()
		WHERE order_id = $1 AND payment_status <> 'success'
	`

	res, err := r.db.ExecContext(ctx, query, orderID, transactionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment success: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// MarkPaymentFailed records a declined payment. Failure is not terminal: the
// success guard above still lets a later success event through, and the
// guard here keeps a late failure event from clobbering a success.
func (r *repository) MarkPaymentFailed(ctx context.Context, orderID string) error {
	query := `
		UPDATE hackathon_registrations
		SET payment_status = 'failed', updated_at = NOW()
		WHERE order_id = $1 AND payment_status <> 'success'
	`

	if _, err := r.db.ExecContext(ctx, query, orderID); err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}

func (r *repository) ListRegistrations(ctx context.Context, filter ListFilter) ([]model.Registration, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if filter.CandidateStatus != "" && filter.CandidateStatus != "all" {
		args = append(args, filter.CandidateStatus)
		where = append(where, fmt.Sprintf("candidate_status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM hackathon_registrations " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	args = append(args, filter.Limit)
	limitPos := len(args)
	args = append(args, (filter.Page-1)*filter.Limit)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT `+registrationColumns+`
		FROM hackathon_registrations
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, limitPos, offsetPos)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]model.Registration, 0, filter.Limit)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate registrations: %w", err)
	}

	return regs, total, nil
}

func (r *repository) UpdateCandidateStatus(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE hackathon_registrations
		SET candidate_status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`

	var updated int64
	if err := r.db.QueryRowContext(ctx, query, status, id).Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to update candidate status: %w", err)
	}
	return nil
}

// ListAssessmentRecipients selects everyone who has paid but not yet moved
// past the Registered stage, the bulk-send audience.
func (r *repository) ListAssessmentRecipients(ctx context.Context) ([]model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM hackathon_registrations
		WHERE payment_status = 'success' AND candidate_status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, model.DefaultCandidateStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment recipients: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipients: %w", err)
	}

	return regs, nil
}

func (r *repository) CreateContactMessage(ctx context.Context, msg *model.ContactMessage) (int64, error) {
	query := `
		INSERT INTO contact_messages (first_name, last_name, email, message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		msg.FirstName, msg.LastName, msg.Email, msg.Message,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return id, nil
}
