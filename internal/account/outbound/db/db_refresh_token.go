package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/jackc/pgx/v5"
)

func (s *DB) CreateRefreshToken(ctx context.Context, ref entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	query := `
		INSERT INTO account_refresh_tokens (id, user_id, token_hash, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = s.conn.Exec(ctx, query, ref.ID, ref.UserID, ref.TokenHash, ref.ExpiresAt, ref.Metadata)

	return s.mapError(err)
}

func (s *DB) GetUserRefreshToken(ctx context.Context, tokenHash string) (_ *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT u.id, u.email, u.status,
			r.id, r.token_hash, r.revoked, r.replaced_by_token_id, r.expires_at
		FROM account_refresh_tokens r
		JOIN account_users u ON u.id = r.user_id
		WHERE r.token_hash = $1 AND u.deleted_at IS NULL`

	var urt entity.UserRefreshToken
	err = s.conn.QueryRow(ctx, query, tokenHash).Scan(
		&urt.UserID,
		&urt.UserEmail,
		&urt.UserStatus,
		&urt.RefreshID,
		&urt.RefreshTokenHash,
		&urt.RefreshRevoked,
		&urt.RefreshReplacedByTokenID,
		&urt.RefreshExpiresAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &urt, nil
}

// RotateRefreshToken revokes the old token and inserts its replacement in one
// transaction. Zero rows on the revoke step means another request already
// rotated it, reported as goerror.ErrNotFound so the caller can treat the
// presented token as reused.
func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
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

	replaceQuery := `
		UPDATE account_refresh_tokens
		SET revoked = TRUE, replaced_by_token_id = $1, updated_at = now()
		WHERE id = $2 AND revoked = FALSE`

	tag, err := tx.Exec(ctx, replaceQuery, ro.NewID, ro.OldID)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	createQuery := `
		INSERT INTO account_refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, createQuery, ro.NewID, ro.UserID, ro.NewTokenHash, ro.NewExpiresAt); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) RevokeRefreshToken(ctx context.Context, userID int64, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	query := `
		UPDATE account_refresh_tokens
		SET revoked = TRUE, updated_at = now()
		WHERE user_id = $1 AND token_hash = $2 AND revoked = FALSE`

	tag, err := s.conn.Exec(ctx, query, userID, tokenHash)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) RevokeAllRefreshTokens(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	query := `
		UPDATE account_refresh_tokens
		SET revoked = TRUE, updated_at = now()
		WHERE user_id = $1 AND revoked = FALSE`

	tag, err := s.conn.Exec(ctx, query, userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) DeleteExpiredRefreshTokens(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredRefreshTokens")
	defer func() { s.endSpan(span, err) }()

	query := `DELETE FROM account_refresh_tokens WHERE expires_at <= now()`

	tag, err := s.conn.Exec(ctx, query)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
