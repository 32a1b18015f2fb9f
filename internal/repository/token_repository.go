package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo is the refresh-token ledger: one row per issued token, keyed by
// the SHA-256 hash of the opaque value handed to the client.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token hash row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Redeem consumes a refresh token: it validates the row and deletes it in a
// single delete-and-check-row-count step, so two concurrent redemptions of
// the same token can never both succeed.  Whichever request loses the
// delete sees zero affected rows and gets ErrTokenNotFound.  A row found
// past its expiry is deleted as cleanup and reported the same way.
func (r *TokenRepo) Redeem(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	if time.Now().UTC().After(expiresAt) {
		_, _ = r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
		return 0, ErrTokenNotFound
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token_hash=?", tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// another request redeemed the token between our read and delete
		return 0, ErrTokenNotFound
	}
	return userID, nil
}

// DeleteAllForUser removes every refresh token of a user, logging them out
// of all sessions.  Used on logout and on password change/reset.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired removes all rows whose expiry has passed and returns how
// many were deleted.  Safe to run concurrently with live traffic: no valid
// token can match the predicate.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
