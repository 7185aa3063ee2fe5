package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

// ErrorKind categorizes storage failures.
type ErrorKind int

const (
	// ErrQuery means the store answered but the query failed.
	ErrQuery ErrorKind = iota
	// ErrUnavailable means no connection could be obtained from the pool.
	ErrUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrQuery:
		return "Query"
	case ErrUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// Error is returned by every storage operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a storage error caused by the pool
// being unable to serve a connection.
func IsUnavailable(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Kind == ErrUnavailable
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return ErrUnavailable
	default:
		return ErrQuery
	}
}
