package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/rowmap"
	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/timex"
)

const apiPrefix = "/api/v1"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

func (r loginResponse) session() Session {
	return Session{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, UserID: r.UserID}
}

type rowsPayload struct {
	Rows []rowmap.Row `json:"rows"`
}

type presignResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPClient talks to the sync server over HTTP+JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewHTTPClient returns a client for the server at baseURL. A scheme-less
// address such as "localhost:8080" is treated as http.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration) *HTTPClient {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, false, nil)
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", credentialsRequest{Email: email, Password: password}, false, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentialsRequest{Email: email, Password: password}, false, &resp); err != nil {
		return Session{}, err
	}
	return resp.session(), nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, false, &resp); err != nil {
		return Session{}, err
	}
	return resp.session(), nil
}

func (c *HTTPClient) UpsertRows(ctx context.Context, collection string, rows []rowmap.Row) error {
	if rows == nil {
		rows = []rowmap.Row{}
	}
	return c.do(ctx, http.MethodPost, "/records/"+url.PathEscape(collection), rowsPayload{Rows: rows}, true, nil)
}

func (c *HTTPClient) FetchRows(ctx context.Context, collection string, since *time.Time) ([]rowmap.Row, error) {
	path := "/records/" + url.PathEscape(collection)
	if since != nil {
		path += "?since=" + url.QueryEscape(timex.FormatInstant(*since))
	}

	var resp rowsPayload
	if err := c.do(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	if resp.Rows == nil {
		resp.Rows = []rowmap.Row{}
	}
	return resp.Rows, nil
}

func (c *HTTPClient) PresignBackupPut(ctx context.Context) (string, error) {
	var resp presignResponse
	if err := c.do(ctx, http.MethodPost, "/backups/presign-put", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) PresignBackupGet(ctx context.Context) (string, error) {
	var resp presignResponse
	if err := c.do(ctx, http.MethodGet, "/backups/presign-get", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// SetTokenSource replaces the bearer token source. It must be called before
// the client is shared between goroutines.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// do sends one API request. An authenticated request rejected with 401 is
// retried once after the token source refreshed the token, if it can.
func (c *HTTPClient) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	token := ""
	if auth {
		if c.tokens == nil {
			return ErrUnauthorized
		}
		var err error
		if token, err = c.tokens.AccessToken(ctx); err != nil {
			return err
		}
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && auth {
		if r, ok := c.tokens.(Refresher); ok {
			resp.Body.Close()
			if token, err = r.RefreshAccessToken(ctx, token); err != nil {
				return err
			}
			if resp, err = c.send(ctx, method, path, payload, token); err != nil {
				return err
			}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return mapStatus(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func mapStatus(resp *http.Response) error {
	var e errorResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(b, &e) != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(b))
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case resp.StatusCode == http.StatusConflict:
		sentinel = ErrAlreadyExists
	case resp.StatusCode >= 500:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrBadRequest
	}
	return fmt.Errorf("%w: %s: %s", sentinel, resp.Status, e.Error)
}
