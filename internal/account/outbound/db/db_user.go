package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/jackc/pgx/v5"
)

func (s *DB) GetUserLoginByEmail(ctx context.Context, email string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginByEmail")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT u.id, u.email, u.status, c.password,
			EXISTS (
				SELECT 1 FROM account_totp_factors f
				WHERE f.user_id = u.id AND f.confirmed = TRUE
			) AS has_totp
		FROM account_users u
		JOIN account_user_credentials c ON c.user_id = u.id
		WHERE u.email = $1 AND u.deleted_at IS NULL`

	var info entity.UserLoginInfo
	err = s.conn.QueryRow(ctx, query, email).Scan(
		&info.ID,
		&info.Email,
		&info.Status,
		&info.Password,
		&info.HasTOTP,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &info, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT id, email, full_name, avatar_url, status, updated_at, deleted_at
		FROM account_users
		WHERE id = $1 AND deleted_at IS NULL`

	var user entity.User
	err = s.conn.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.Status,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}

func (s *DB) GetUserCredential(ctx context.Context, userID int64) (_ *entity.UserCredentialInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredential")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT u.id, u.email, u.status, c.password
		FROM account_users u
		JOIN account_user_credentials c ON c.user_id = u.id
		WHERE u.id = $1 AND u.deleted_at IS NULL`

	var info entity.UserCredentialInfo
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&info.ID,
		&info.Email,
		&info.Status,
		&info.Password,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &info, nil
}

func (s *DB) ExistsUserByEmail(ctx context.Context, email string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExistsUserByEmail")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT EXISTS (SELECT 1 FROM account_users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err = s.conn.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

func (s *DB) NewRegistration(ctx context.Context, user entity.NewUser, chal entity.NewChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "NewRegistration")
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

	userQuery := `
		INSERT INTO account_users (id, email, full_name, avatar_url, status)
		VALUES ($1, $2, $3, '', $4)`
	if _, err := tx.Exec(ctx, userQuery, user.ID, user.Email, user.FullName, int16(user.Status)); err != nil {
		return s.mapError(err)
	}

	credQuery := `INSERT INTO account_user_credentials (user_id, password) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, credQuery, user.ID, user.Password); err != nil {
		return s.mapError(err)
	}

	chalQuery := `
		INSERT INTO account_challenges (id, user_id, contact, purpose, code, attempts, used, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE, $6, $7)`
	if _, err := tx.Exec(ctx, chalQuery,
		chal.ID, chal.UserID, chal.Contact, int16(chal.Purpose), chal.Code, chal.ExpiresAt, chal.Metadata); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// MarkEmailVerified flips the user status from old to new. Zero rows means the
// status already moved on, reported as goerror.ErrNotFound.
func (s *DB) MarkEmailVerified(ctx context.Context, userID int64, oldStatus, newStatus entity.UserStatus) (err error) {
	ctx, span := s.startSpan(ctx, "MarkEmailVerified")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_users SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`

	tag, err := s.conn.Exec(ctx, query, int16(newStatus), userID, int16(oldStatus))
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserEmail(ctx context.Context, userID int64, email string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserEmail")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_users SET email = $1, updated_at = now() WHERE id = $2`

	tag, err := s.conn.Exec(ctx, query, email, userID)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserCredential(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserCredential")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_user_credentials SET password = $1, updated_at = now() WHERE user_id = $2`

	tag, err := s.conn.Exec(ctx, query, hash, userID)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserProfile(ctx context.Context, userID int64, fullName string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_users SET full_name = $1, updated_at = now() WHERE id = $2`

	tag, err := s.conn.Exec(ctx, query, fullName, userID)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserAvatar(ctx context.Context, userID int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_users SET avatar_url = $1, updated_at = now() WHERE id = $2`

	tag, err := s.conn.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
