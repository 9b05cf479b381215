package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/rowmap"
)

// Session is what a successful login yields.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Refresher is implemented by token sources that can renew an access token
// the server rejected. stale is the token that failed; implementations return
// a newer token without a round trip when one is already stored.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, stale string) (string, error)
}

type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)

	// UpsertRows writes rows to a collection keyed by id. An empty slice is
	// still sent.
	UpsertRows(ctx context.Context, collection string, rows []rowmap.Row) error

	// FetchRows returns rows updated strictly after since, or all rows when
	// since is nil.
	FetchRows(ctx context.Context, collection string, since *time.Time) ([]rowmap.Row, error)

	PresignBackupPut(ctx context.Context) (string, error)
	PresignBackupGet(ctx context.Context) (string, error)
}
