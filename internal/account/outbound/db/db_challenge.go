package db

import (
	"context"

	"github.com/inkflow/inkflow/internal/account/entity"
)

func (s *DB) GetActiveChallenge(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT id, user_id, contact, purpose, code, attempts, used, used_at, created_at, expires_at, metadata
		FROM account_challenges
		WHERE user_id = $1 AND purpose = $2 AND used = FALSE AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1`

	var chal entity.Challenge
	err = s.conn.QueryRow(ctx, query, userID, int16(purpose)).Scan(
		&chal.ID,
		&chal.UserID,
		&chal.Contact,
		&chal.Purpose,
		&chal.Code,
		&chal.Attempts,
		&chal.Used,
		&chal.UsedAt,
		&chal.CreatedAt,
		&chal.ExpiresAt,
		&chal.Metadata,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &chal, nil
}

// GetLatestChallenge fetches the newest unused challenge regardless of
// expiry. Verification wants the expired row back so it can report expiry
// instead of a generic mismatch.
func (s *DB) GetLatestChallenge(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `
		SELECT id, user_id, contact, purpose, code, attempts, used, used_at, created_at, expires_at, metadata
		FROM account_challenges
		WHERE user_id = $1 AND purpose = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1`

	var chal entity.Challenge
	err = s.conn.QueryRow(ctx, query, userID, int16(purpose)).Scan(
		&chal.ID,
		&chal.UserID,
		&chal.Contact,
		&chal.Purpose,
		&chal.Code,
		&chal.Attempts,
		&chal.Used,
		&chal.UsedAt,
		&chal.CreatedAt,
		&chal.ExpiresAt,
		&chal.Metadata,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &chal, nil
}

func (s *DB) CreateChallenge(ctx context.Context, chal entity.NewChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `
		INSERT INTO account_challenges (id, user_id, contact, purpose, code, attempts, used, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, 0, FALSE, $6, $7)`

	_, err = s.conn.Exec(ctx, query,
		chal.ID, chal.UserID, chal.Contact, int16(chal.Purpose), chal.Code, chal.ExpiresAt, chal.Metadata)

	return s.mapError(err)
}

// RecordChallengeAttempt increments the attempt counter and returns the new
// value in one statement, so concurrent verifications never read a stale count.
func (s *DB) RecordChallengeAttempt(ctx context.Context, id int64) (_ int32, err error) {
	ctx, span := s.startSpan(ctx, "RecordChallengeAttempt")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_challenges SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`

	var attempts int32
	if err = s.conn.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) MarkChallengeUsed(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkChallengeUsed")
	defer func() { s.endSpan(span, err) }()

	query := `UPDATE account_challenges SET used = TRUE, used_at = COALESCE(used_at, now()) WHERE id = $1`

	_, err = s.conn.Exec(ctx, query, id)

	return s.mapError(err)
}

func (s *DB) InvalidateActiveChallenges(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "InvalidateActiveChallenges")
	defer func() { s.endSpan(span, err) }()

	query := `
		UPDATE account_challenges
		SET used = TRUE, used_at = now()
		WHERE user_id = $1 AND purpose = $2 AND used = FALSE AND expires_at > now()`

	tag, err := s.conn.Exec(ctx, query, userID, int16(purpose))
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) PurgeExpiredChallenges(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredChallenges")
	defer func() { s.endSpan(span, err) }()

	query := `DELETE FROM account_challenges WHERE expires_at <= now()`

	tag, err := s.conn.Exec(ctx, query)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
