// Package remote is the optional hosted backend. When it is disabled or
// unreachable every call fails with ErrUnavailable-compatible errors and the
// caller continues on local storage.
package remote

import (
	"context"
	"errors"
)

var (
	ErrUnavailable  = errors.New("remote: backend unavailable")
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrNotFound     = errors.New("remote: not found")
	ErrConflict     = errors.New("remote: conflict")
	ErrBadRequest   = errors.New("remote: bad request")
)

// Modes accepted in configuration.
const (
	ModeDisabled = "disabled"
	ModeREST     = "rest"
)

// Session is an authenticated remote session.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
}

// Backend is the hosted data and auth API.
type Backend interface {
	Enabled() bool

	SignUp(ctx context.Context, email, password string) (Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (Session, error)

	// Select decodes the rows of table matching every eq pair into out.
	Select(ctx context.Context, table string, eq map[string]string, out any) error
	Insert(ctx context.Context, table string, row any) error
	Update(ctx context.Context, table string, eq map[string]string, patch any) error
	Delete(ctx context.Context, table string, eq map[string]string) error
}

// Disabled is the Backend used when no remote is configured.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) SignUp(context.Context, string, string) (Session, error) {
	return Session{}, ErrUnavailable
}

func (Disabled) SignInWithPassword(context.Context, string, string) (Session, error) {
	return Session{}, ErrUnavailable
}

func (Disabled) SignOut(context.Context) error { return ErrUnavailable }

func (Disabled) GetSession(context.Context) (Session, error) { return Session{}, ErrUnavailable }

func (Disabled) Select(context.Context, string, map[string]string, any) error {
	return ErrUnavailable
}

func (Disabled) Insert(context.Context, string, any) error { return ErrUnavailable }

func (Disabled) Update(context.Context, string, map[string]string, any) error {
	return ErrUnavailable
}

func (Disabled) Delete(context.Context, string, map[string]string) error { return ErrUnavailable }
