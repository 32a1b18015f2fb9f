// Package service holds the pieces that orchestrate repositories into
// application behavior: the session manager and the event publisher.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
	"github.com/asesoriasalud/cotizaciones-api/internal/utils"
)

// ErrInvalidRefresh is returned when a presented refresh token is unknown,
// expired, or already redeemed.  Callers cannot distinguish the cases.
var ErrInvalidRefresh = errors.New("invalid or expired refresh token")

// TokenStore is the refresh-token ledger the session manager runs on.
// *repository.TokenRepo satisfies it; tests substitute an in-memory fake.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Redeem(ctx context.Context, tokenHash string) (uint64, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Session is the credential pair handed to a client after login or refresh.
type Session struct {
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	ExpiresIn      int       `json:"expires_in"` // access token lifetime in seconds
	AccessExpires  time.Time `json:"access_expires"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// SessionManager issues, rotates and revokes (access, refresh) token pairs.
// The access token is a short-lived signed JWT; the refresh token is an
// opaque single-use value persisted (hashed) in the ledger.
type SessionManager struct {
	tokens         TokenStore
	secret         string
	accessTTLMin   int
	refreshTTLDays int
}

func NewSessionManager(tokens TokenStore, secret string, accessTTLMin, refreshTTLDays int) *SessionManager {
	return &SessionManager{
		tokens:         tokens,
		secret:         secret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
	}
}

// Issue creates a fresh session for a user: a signed access token and a new
// refresh token row.  The only side effect is the inserted ledger row.
func (m *SessionManager) Issue(ctx context.Context, userID uint64) (Session, error) {
	access, err := utils.NewAccessToken(m.secret, userID, m.accessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(m.refreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := m.tokens.Store(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:    access.Token,
		RefreshToken:   refresh.Raw,
		ExpiresIn:      m.accessTTLMin * 60,
		AccessExpires:  access.Exp,
		RefreshExpires: refresh.Exp,
	}, nil
}

// Refresh redeems a presented refresh token and issues a replacement pair
// for the same user.  Redemption deletes the presented token atomically, so
// each refresh token works exactly once; the loser of a concurrent
// redemption gets ErrInvalidRefresh.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (Session, uint64, error) {
	userID, err := m.tokens.Redeem(ctx, utils.HashRefreshRaw(presented))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return Session{}, 0, ErrInvalidRefresh
		}
		return Session{}, 0, err
	}
	s, err := m.Issue(ctx, userID)
	if err != nil {
		return Session{}, 0, err
	}
	return s, userID, nil
}

// RevokeAll deletes every refresh token of a user.  Used on logout and on
// password change/reset so no other session survives.
func (m *SessionManager) RevokeAll(ctx context.Context, userID uint64) error {
	return m.tokens.DeleteAllForUser(ctx, userID)
}

// SweepExpired deletes all ledger rows past their expiry.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	return m.tokens.DeleteExpired(ctx)
}

// StartSweeper runs SweepExpired on a ticker until ctx is cancelled.
// Failures are logged and the loop continues; the sweep is never fatal.
func (m *SessionManager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := m.SweepExpired(ctx)
				if err != nil {
					log.Printf("token-sweeper: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("token-sweeper: removed %d expired refresh tokens", n)
				}
			}
		}
	}()
}
