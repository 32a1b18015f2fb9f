package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriasalud/cotizaciones-api/internal/repository"
)

// memStore is an in-memory refresh-token ledger with the same redeem
// semantics as the SQL repository: delete-and-check, first caller wins.
type memStore struct {
	mu     sync.Mutex
	tokens map[string]memToken
}

type memToken struct {
	userID uint64
	exp    time.Time
}

func newMemStore() *memStore {
	return &memStore{tokens: make(map[string]memToken)}
}

func (s *memStore) Store(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = memToken{userID: userID, exp: exp}
	return nil
}

func (s *memStore) Redeem(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok {
		return 0, repository.ErrTokenNotFound
	}
	delete(s.tokens, tokenHash)
	if time.Now().After(tok.exp) {
		return 0, repository.ErrTokenNotFound
	}
	return tok.userID, nil
}

func (s *memStore) DeleteAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, tok := range s.tokens {
		if tok.userID == userID {
			delete(s.tokens, h)
		}
	}
	return nil
}

func (s *memStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for h, tok := range s.tokens {
		if now.After(tok.exp) {
			delete(s.tokens, h)
			n++
		}
	}
	return n, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func newTestManager(store TokenStore) *SessionManager {
	return NewSessionManager(store, "session-test-secret", 15, 7)
}

func TestIssueSession(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)

	sess, err := m.Issue(context.Background(), 42)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.AccessToken)
	assert.Len(t, sess.RefreshToken, 128)
	assert.Equal(t, 15*60, sess.ExpiresIn)
	assert.Equal(t, 1, store.count())
}

func TestRefreshRotates(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	first, err := m.Issue(ctx, 42)
	require.NoError(t, err)

	second, uid, err := m.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	// the old token is gone, only the replacement remains
	assert.Equal(t, 1, store.count())
}

func TestRefreshSingleUseSequential(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	sess, err := m.Issue(ctx, 42)
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshSingleUseConcurrent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	sess, err := m.Issue(ctx, 42)
	require.NoError(t, err)

	const racers = 8
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Refresh(ctx, sess.RefreshToken)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrInvalidRefresh)
			losses++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent redemption may succeed")
	assert.Equal(t, racers-1, losses)
}

func TestRefreshUnknownToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(newMemStore())
	_, _, err := m.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRevokeAll(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, err := m.Issue(ctx, 42)
	require.NoError(t, err)
	b, err := m.Issue(ctx, 42)
	require.NoError(t, err)
	other, err := m.Issue(ctx, 99)
	require.NoError(t, err)

	require.NoError(t, m.RevokeAll(ctx, 42))

	_, _, err = m.Refresh(ctx, a.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
	_, _, err = m.Refresh(ctx, b.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// the other user's session survives
	_, uid, err := m.Refresh(ctx, other.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), uid)
}

func TestSweepExpired(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	m := newTestManager(store)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, 1, "expired-hash", time.Now().Add(-time.Hour)))
	live, err := m.Issue(ctx, 2)
	require.NoError(t, err)

	n, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, uid, err := m.Refresh(ctx, live.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), uid)
}
