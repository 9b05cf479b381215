// Package services contains the application services the CLI talks to
// besides the replica itself: authentication against the sync server and
// snapshot backups to object storage.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/focussync/internal/client/client"
	"github.com/dmitrijs2005/focussync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/dbx"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the session locally.
//   - Logout: forget the session and the sync high-water mark.
//   - Register: create a new account on the server.
//   - CurrentUser / AccessToken: read the persisted session; they back the
//     reconciler's identity and the HTTP client's bearer token.
//   - RefreshAccessToken: trade the stored refresh token for a new session.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) (client.Session, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, bool)
	AccessToken(ctx context.Context) (string, error)
	RefreshAccessToken(ctx context.Context, stale string) (string, error)
	Email(ctx context.Context) (string, bool)
}

type authService struct {
	client client.Client
	db     *sql.DB

	refreshMu sync.Mutex
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// Register creates a new account on the server. The password buffer is
// wiped afterwards.
func (a *authService) Register(ctx context.Context, email string, password []byte) error {
	defer common.WipeByteArray(password)
	return a.client.Register(ctx, email, string(password))
}

// Login authenticates against the server and stores the session (token,
// user id, email) in a single transaction.
func (a *authService) Login(ctx context.Context, email string, password []byte) (client.Session, error) {
	defer common.WipeByteArray(password)

	s, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return client.Session{}, fmt.Errorf("login error: %w", err)
	}
	if err := a.saveSession(ctx, email, s); err != nil {
		return client.Session{}, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) saveSession(ctx context.Context, email string, s client.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetAll(ctx, map[string]string{
			metadata.KeyAccessToken:  s.AccessToken,
			metadata.KeyRefreshToken: s.RefreshToken,
			metadata.KeyUserID:       s.UserID,
			metadata.KeyEmail:        email,
		})
	})
}

// Logout removes the session and the high-water mark, so that the next
// sign-in starts with a full pull.
func (a *authService) Logout(ctx context.Context) error {
	return a.getMetadataRepo().Delete(ctx,
		metadata.KeyAccessToken,
		metadata.KeyRefreshToken,
		metadata.KeyUserID,
		metadata.KeyEmail,
		metadata.KeyLastSyncTime,
	)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// CurrentUser reports the signed-in user id. A session without a token
// counts as signed out.
func (a *authService) CurrentUser(ctx context.Context) (string, bool) {
	repo := a.getMetadataRepo()
	tok, _, err := repo.Get(ctx, metadata.KeyAccessToken)
	if err != nil || tok == "" {
		return "", false
	}
	id, _, err := repo.Get(ctx, metadata.KeyUserID)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// AccessToken returns the stored bearer token, or client.ErrUnauthorized
// when nobody is signed in.
func (a *authService) AccessToken(ctx context.Context) (string, error) {
	tok, _, err := a.getMetadataRepo().Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", client.ErrUnauthorized
	}
	return tok, nil
}

// RefreshAccessToken renews the session after the server rejected stale.
// Concurrent callers holding the same stale token share one refresh; the
// server rotates refresh tokens, so a second exchange would fail.
func (a *authService) RefreshAccessToken(ctx context.Context, stale string) (string, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	repo := a.getMetadataRepo()
	current, _, err := repo.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if current == "" {
		return "", client.ErrUnauthorized
	}
	if current != stale {
		return current, nil
	}

	refresh, _, err := repo.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", client.ErrUnauthorized
	}

	s, err := a.client.Refresh(ctx, refresh)
	if err != nil {
		return "", fmt.Errorf("refresh error: %w", err)
	}
	email, _ := a.Email(ctx)
	if err := a.saveSession(ctx, email, s); err != nil {
		return "", fmt.Errorf("session saving error: %w", err)
	}
	return s.AccessToken, nil
}

func (a *authService) Email(ctx context.Context) (string, bool) {
	v, _, err := a.getMetadataRepo().Get(ctx, metadata.KeyEmail)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
