package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrTicketNotFound      = errors.New("ticket not issued yet")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Allocator issues per-day queue numbers. EnsureTicket is idempotent: calling
// it again for an appointment that already holds a ticket returns that ticket.
type Allocator interface {
	EnsureTicket(ctx context.Context, appointmentID uuid.UUID, day time.Time) (*Ticket, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error)
}

// DB is the subset of pgxpool.Pool the allocator needs; pgxmock satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgAllocator struct {
	db     DB
	logger *zap.Logger
}

func NewPgAllocator(db DB, logger *zap.Logger) *PgAllocator {
	return &PgAllocator{db: db, logger: logger}
}

const ticketColumns = `id, appointment_id, issue_date, seq_no, status, created_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(
		&t.ID,
		&t.AppointmentID,
		&t.IssueDate,
		&t.SeqNo,
		&t.Status,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// EnsureTicket allocates the next sequence number for the day and binds it to
// the appointment, exactly once. The appointment row lock serialises
// duplicate callers (a racing reconciler and the sweep worker); the counter
// upsert reserves the number in a single statement, so no read-then-write
// window exists between concurrent allocations for different appointments.
func (a *PgAllocator) EnsureTicket(ctx context.Context, appointmentID uuid.UUID, day time.Time) (*Ticket, error) {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin allocation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM appointments WHERE id = $1 FOR UPDATE
	`, appointmentID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("lock appointment: %w", err)
	}

	existing, err := scanTicket(tx.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE appointment_id = $1
	`, appointmentID))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTicketNotFound) {
		return nil, fmt.Errorf("check existing ticket: %w", err)
	}

	var seqNo int
	err = tx.QueryRow(ctx, `
		INSERT INTO ticket_counters (issue_date, last_no)
		VALUES ($1, 1)
		ON CONFLICT (issue_date)
		DO UPDATE SET last_no = ticket_counters.last_no + 1
		RETURNING last_no
	`, day).Scan(&seqNo)
	if err != nil {
		return nil, fmt.Errorf("advance ticket counter: %w", err)
	}

	t, err := scanTicket(tx.QueryRow(ctx, `
		INSERT INTO tickets (id, appointment_id, issue_date, seq_no, status, created_at)
		VALUES ($1, $2, $3, $4, 'waiting', now())
		RETURNING `+ticketColumns+`
	`, uuid.New(), appointmentID, day, seqNo))
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit allocation: %w", err)
	}

	return t, nil
}

func (a *PgAllocator) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Ticket, error) {
	return scanTicket(a.db.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE appointment_id = $1
	`, appointmentID))
}

// PendingAllocation identifies a paid appointment with no ticket, the partial
// failure the sweep repairs.
type PendingAllocation struct {
	AppointmentID uuid.UUID
	VisitDate     time.Time
}

func (a *PgAllocator) FindPaidWithoutTicket(ctx context.Context, limit int) ([]PendingAllocation, error) {
	rows, err := a.db.Query(ctx, `
		SELECT a.id, a.visit_date
		FROM appointments a
		LEFT JOIN tickets t ON t.appointment_id = a.id
		WHERE a.status = 'paid' AND t.id IS NULL
		ORDER BY a.updated_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingAllocation
	for rows.Next() {
		var p PendingAllocation
		if err := rows.Scan(&p.AppointmentID, &p.VisitDate); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	return result, rows.Err()
}

// SweepPendingAllocations retries ticket issuance for paid appointments that
// lost theirs to a partial failure. Intended to be called periodically by the
// reconcile worker.
func (a *PgAllocator) SweepPendingAllocations(ctx context.Context, limit int) (int, error) {
	pending, err := a.FindPaidWithoutTicket(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find paid without ticket: %w", err)
	}

	repaired := 0
	for _, p := range pending {
		t, err := a.EnsureTicket(ctx, p.AppointmentID, p.VisitDate)
		if err != nil {
			a.logger.Warn("ticket retry failed",
				zap.String("appointment_id", p.AppointmentID.String()),
				zap.Error(err),
			)
			continue
		}
		repaired++
		a.logger.Info("ticket issued by sweep",
			zap.String("appointment_id", p.AppointmentID.String()),
			zap.Int("seq_no", t.SeqNo),
		)
	}

	return repaired, nil
}
