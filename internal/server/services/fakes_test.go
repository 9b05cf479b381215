package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/dbx"
	"github.com/dmitrijs2005/focussync/internal/server/models"
	recordsrepo "github.com/dmitrijs2005/focussync/internal/server/repositories/records"
	refreshtokensrepo "github.com/dmitrijs2005/focussync/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/focussync/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	getErr  error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *u
	cp.ID = fmt.Sprintf("u-%d", len(f.byEmail)+1)
	f.byEmail[u.Email] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]models.RefreshToken
	createErr error
	findErr   error
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expires}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, rt := range f.tokens {
		if rt.ExpiredAt(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// fakeRecordsRepo applies the same last-writer-wins guard as the SQL upsert.
type fakeRecordsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.Record
	upsertErr error
}

func recordKey(userID, collection, id string) string {
	return userID + "/" + collection + "/" + id
}

func (f *fakeRecordsRepo) Upsert(_ context.Context, rec models.Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	k := recordKey(rec.UserID, rec.Collection, rec.ID)
	if cur, ok := f.rows[k]; ok && cur.UpdatedAt.After(rec.UpdatedAt) {
		return false, nil
	}
	f.rows[k] = rec
	return true, nil
}

func (f *fakeRecordsRepo) ListSince(_ context.Context, userID, collection string, since *time.Time) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Record, 0)
	for _, r := range f.rows {
		if r.UserID != userID || r.Collection != collection {
			continue
		}
		if since != nil && !r.UpdatedAt.After(*since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

type fakeRepoManager struct {
	u   *fakeUsersRepo
	r   *fakeRefreshRepo
	rec *fakeRecordsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:   &fakeUsersRepo{byEmail: map[string]*models.User{}},
		r:   &fakeRefreshRepo{tokens: map[string]models.RefreshToken{}},
		rec: &fakeRecordsRepo{rows: map[string]models.Record{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error         { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Records(dbx.DBTX) recordsrepo.Repository             { return m.rec }
