package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/jackc/pgx/v5"
)

func (s *DB) GetConfirmedTOTPFactor(ctx context.Context, userID int64) (_ *entity.TOTPFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetConfirmedTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT id, user_id, secret, key_version, confirmed
		FROM account_totp_factors
		WHERE user_id = $1 AND confirmed = TRUE
		LIMIT 1`

	var factor entity.TOTPFactor
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&factor.ID,
		&factor.UserID,
		&factor.Secret,
		&factor.KeyVersion,
		&factor.Confirmed,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &factor, nil
}

// ConfirmTOTPFactor persists the verified factor and consumes the setup
// challenge in one transaction.
func (s *DB) ConfirmTOTPFactor(ctx context.Context, factor entity.TOTPFactor, challengeID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	factorQuery := `
		INSERT INTO account_totp_factors (id, user_id, secret, key_version, confirmed)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, factorQuery,
		factor.ID, factor.UserID, factor.Secret, factor.KeyVersion, factor.Confirmed); err != nil {
		return s.mapError(err)
	}

	usedQuery := `UPDATE account_challenges SET used = TRUE, used_at = COALESCE(used_at, now()) WHERE id = $1`

	if _, err := tx.Exec(ctx, usedQuery, challengeID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
