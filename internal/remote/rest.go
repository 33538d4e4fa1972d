package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTConfig configures the REST backend.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// REST talks to a PostgREST data API and a GoTrue-style auth API.
type REST struct {
	client *resty.Client

	mu      sync.RWMutex
	session Session
}

// NewREST builds a REST backend. It does not contact the server.
func NewREST(cfg RESTConfig) *REST {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &REST{client: cli}
}

func (r *REST) Enabled() bool { return true }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r *REST) SignUp(ctx context.Context, email, password string) (Session, error) {
	return r.authenticate(ctx, "/auth/v1/signup", email, password)
}

func (r *REST) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	return r.authenticate(ctx, "/auth/v1/token?grant_type=password", email, password)
}

func (r *REST) authenticate(ctx context.Context, path, email, password string) (Session, error) {
	var out authResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&out).
		Post(path)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := mapHTTPError(resp); err != nil {
		return Session{}, err
	}
	s := Session{AccessToken: out.AccessToken, UserID: out.User.ID, Email: out.User.Email}
	r.mu.Lock()
	r.session = s
	r.mu.Unlock()
	return s, nil
}

func (r *REST) SignOut(ctx context.Context) error {
	resp, err := r.request(ctx).Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := mapHTTPError(resp); err != nil {
		return err
	}
	r.mu.Lock()
	r.session = Session{}
	r.mu.Unlock()
	return nil
}

// GetSession returns the session from the last successful sign-in.
func (r *REST) GetSession(_ context.Context) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session.AccessToken == "" {
		return Session{}, ErrUnauthorized
	}
	return r.session, nil
}

func (r *REST) Select(ctx context.Context, table string, eq map[string]string, out any) error {
	resp, err := r.request(ctx).
		SetQueryParams(eqParams(eq)).
		SetQueryParam("select", "*").
		SetResult(out).
		Get("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return mapHTTPError(resp)
}

func (r *REST) Insert(ctx context.Context, table string, row any) error {
	resp, err := r.request(ctx).SetBody(row).Post("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return mapHTTPError(resp)
}

func (r *REST) Update(ctx context.Context, table string, eq map[string]string, patch any) error {
	resp, err := r.request(ctx).
		SetQueryParams(eqParams(eq)).
		SetBody(patch).
		Patch("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return mapHTTPError(resp)
}

func (r *REST) Delete(ctx context.Context, table string, eq map[string]string) error {
	resp, err := r.request(ctx).SetQueryParams(eqParams(eq)).Delete("/rest/v1/" + table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return mapHTTPError(resp)
}

func (r *REST) request(ctx context.Context) *resty.Request {
	req := r.client.R().SetContext(ctx)
	r.mu.RLock()
	token := r.session.AccessToken
	r.mu.RUnlock()
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func eqParams(eq map[string]string) map[string]string {
	out := make(map[string]string, len(eq))
	for k, v := range eq {
		out[k] = "eq." + v
	}
	return out
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	body := strings.TrimSpace(string(resp.Body()))

	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body)
	default:
		if body == "" {
			body = http.StatusText(code)
		}
		return fmt.Errorf("%w: http %d: %s", ErrUnavailable, code, body)
	}
}
