package kv

import "context"

// Disabled is a Store whose every operation fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (string, bool, error) { return "", false, ErrUnavailable }
func (Disabled) Set(context.Context, string, string) error         { return ErrUnavailable }
func (Disabled) Remove(context.Context, string) error              { return ErrUnavailable }
func (Disabled) Keys(context.Context) ([]string, error)            { return nil, ErrUnavailable }
func (Disabled) Close() error                                      { return nil }
