package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const intentColumns = `appointment_id, amount, gateway_txn_id, last_payload, outcome, resolved_at, updated_at`

func scanIntent(row pgx.Row) (*Intent, error) {
	var in Intent
	err := row.Scan(
		&in.AppointmentID,
		&in.Amount,
		&in.GatewayTxnID,
		&in.LastPayload,
		&in.Outcome,
		&in.ResolvedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}
	return &in, nil
}

func (r *PgRepository) EnsureIntent(ctx context.Context, appointmentID uuid.UUID, amount int64) (*Intent, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_intents (appointment_id, amount, outcome, updated_at)
		VALUES ($1, $2, 'pending', now())
		ON CONFLICT (appointment_id) DO NOTHING
	`, appointmentID, amount)
	if err != nil {
		return nil, fmt.Errorf("ensure payment intent: %w", err)
	}

	return r.GetIntent(ctx, appointmentID)
}

func (r *PgRepository) GetIntent(ctx context.Context, appointmentID uuid.UUID) (*Intent, error) {
	return scanIntent(r.pool.QueryRow(ctx, `
		SELECT `+intentColumns+`
		FROM payment_intents
		WHERE appointment_id = $1
	`, appointmentID))
}

// ResolveSucceeded is the single conditional update that decides which of the
// racing channels performs the side effects. The predicate admits pending and
// failed so a premature failure probe can be overridden; once succeeded, the
// update matches nothing and the caller is a confirmed loser.
func (r *PgRepository) ResolveSucceeded(ctx context.Context, appointmentID uuid.UUID, txnID string, payload []byte) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin resolve: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE payment_intents
		SET outcome = 'succeeded',
		    gateway_txn_id = $2,
		    last_payload = $3,
		    resolved_at = now(),
		    updated_at = now()
		WHERE appointment_id = $1
		  AND outcome <> 'succeeded'
	`, appointmentID, txnID, payload)
	if err != nil {
		return false, fmt.Errorf("resolve intent: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Loser: keep the latest payload for audit, change nothing else.
		_, err = tx.Exec(ctx, `
			UPDATE payment_intents
			SET last_payload = $2, updated_at = now()
			WHERE appointment_id = $1
		`, appointmentID, payload)
		if err != nil {
			return false, fmt.Errorf("record duplicate payload: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit resolve: %w", err)
		}
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'paid', updated_at = now()
		WHERE id = $1 AND status = 'awaiting_payment'
	`, appointmentID)
	if err != nil {
		return false, fmt.Errorf("mark appointment paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, ErrAppointmentNotAwaiting
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit resolve: %w", err)
	}
	return true, nil
}

func (r *PgRepository) MarkFailed(ctx context.Context, appointmentID uuid.UUID, payload []byte) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_intents
		SET outcome = 'failed',
		    last_payload = $2,
		    resolved_at = now(),
		    updated_at = now()
		WHERE appointment_id = $1
		  AND outcome = 'pending'
	`, appointmentID, payload)
	if err != nil {
		return false, fmt.Errorf("mark intent failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
