package syncthing

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

type ErrorKind int

const (
	// KindFatal is a contract violation between Syncthing and this client.
	KindFatal ErrorKind = iota
	// KindGone means the connection dropped while waiting for events.
	KindGone
	// KindConfigChanged means Syncthing saved its configuration.
	KindConfigChanged
	// KindRefused means nothing listens at the configured address.
	KindRefused
	// KindTransport covers any other network failure.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindGone:
		return "gone"
	case KindConfigChanged:
		return "config changed"
	case KindRefused:
		return "refused"
	case KindTransport:
		return "transport"
	default:
		return "fatal"
	}
}

var ErrConfigSaved = errors.New("syncthing configuration saved")

type StreamError struct {
	Kind ErrorKind
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("syncthing %s: %v", e.Kind, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func fatalf(format string, args ...any) error {
	return &StreamError{Kind: KindFatal, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a client error. Errors not produced by this
// package are fatal.
func KindOf(err error) ErrorKind {
	if se, ok := errors.AsType[*StreamError](err); ok {
		return se.Kind
	}

	return KindFatal
}

func transportError(err error) error {
	kind := KindTransport
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindRefused
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ECONNRESET):
		kind = KindGone
	}

	return &StreamError{Kind: kind, Err: err}
}
