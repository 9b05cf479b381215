package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/logging"
	"github.com/dmitrijs2005/focussync/internal/server/models"
	"github.com/dmitrijs2005/focussync/internal/server/services"
)

const goodToken = "good-token"

type fakeUsers struct {
	mu          sync.Mutex
	registered  map[string]string
	registerErr error
	refreshErr  error
	lastRefresh string
}

func (f *fakeUsers) Register(_ context.Context, email string, password []byte) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if _, ok := f.registered[email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.registered[email] = string(password)
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeUsers) Login(_ context.Context, email string, password []byte) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.registered[email]; !ok || pw != string(password) {
		return nil, common.ErrorUnauthorized
	}
	return &services.Session{AccessToken: goodToken, RefreshToken: "refresh-1", UserID: "u1"}, nil
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRefresh = token
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.Session{AccessToken: goodToken, RefreshToken: "refresh-2", UserID: "u1"}, nil
}

func (f *fakeUsers) UserIDFromAccessToken(token string) (string, error) {
	switch token {
	case goodToken:
		return "u1", nil
	case "expired":
		return "", common.ErrTokenExpired
	default:
		return "", common.ErrInvalidToken
	}
}

type pushCall struct {
	userID, collection string
	rows               []map[string]any
}

type fakeRecords struct {
	mu      sync.Mutex
	pushes  []pushCall
	stored  map[string][]json.RawMessage
	since   *time.Time
	pushErr error
}

func (f *fakeRecords) Push(_ context.Context, userID, collection string, rows []map[string]any) (services.PushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return services.PushResult{}, f.pushErr
	}
	if !common.IsKnownCollection(collection) {
		return services.PushResult{}, common.ErrUnknownCollection
	}
	f.pushes = append(f.pushes, pushCall{userID, collection, rows})
	for _, r := range rows {
		b, _ := json.Marshal(r)
		f.stored[collection] = append(f.stored[collection], b)
	}
	return services.PushResult{Written: len(rows)}, nil
}

func (f *fakeRecords) Pull(_ context.Context, userID, collection string, since *time.Time) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !common.IsKnownCollection(collection) {
		return nil, common.ErrUnknownCollection
	}
	f.since = since
	out := append([]json.RawMessage{}, f.stored[collection]...)
	return out, nil
}

type fakeBackups struct {
	err error
}

func (f *fakeBackups) PresignPut(_ context.Context, userID string) (string, error) {
	return "http://s3/put/" + userID, f.err
}

func (f *fakeBackups) PresignGet(_ context.Context, userID string) (string, error) {
	return "http://s3/get/" + userID, f.err
}

type fixture struct {
	users   *fakeUsers
	records *fakeRecords
	backups *fakeBackups
	server  *HTTPServer
	ts      *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   &fakeUsers{registered: map[string]string{}},
		records: &fakeRecords{stored: map[string][]json.RawMessage{}},
		backups: &fakeBackups{},
	}
	f.server = NewHTTPServer("127.0.0.1:0", logging.NewNopLogger(), f.users, f.records, f.backups, time.Second)
	f.ts = httptest.NewServer(f.server.Routes())
	t.Cleanup(f.ts.Close)
	return f
}
