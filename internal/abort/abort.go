// Package abort terminates the current request.
//
// Abort never returns. The http manager panics with a *Termination that the
// request boundary recovers and turns into a response; the cli manager
// prints the message and exits the process.
package abort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownManager is returned when the configured manager name has no
// implementation.
var ErrUnknownManager = errors.New("unknown abort manager")

// Manager ends the current request.
type Manager interface {
	Boot(ctx context.Context) error
	// Abort stops the request with code. A zero code means 500.
	Abort(ctx context.Context, code int, message, title string, args map[string]any)
	// Redirect stops the request and sends the client to location. A zero
	// code means 302.
	Redirect(ctx context.Context, location string, code int)
}

// Termination describes an aborted request.
type Termination struct {
	Code     int
	Message  string
	Title    string
	Location string
	Args     map[string]any
}

func (t *Termination) Error() string {
	if t.Location != "" {
		return fmt.Sprintf("request redirected (%d) to %s", t.Code, t.Location)
	}
	if t.Message == "" {
		return fmt.Sprintf("request aborted (%d)", t.Code)
	}
	return fmt.Sprintf("request aborted (%d): %s", t.Code, t.Message)
}

// IsRedirect reports whether the termination sends the client elsewhere.
func (t *Termination) IsRedirect() bool { return t.Location != "" }

func newTermination(code int, message, title string, args map[string]any) *Termination {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return &Termination{Code: code, Message: message, Title: title, Args: args}
}

func newRedirect(location string, code int) *Termination {
	if code == 0 {
		code = http.StatusFound
	}
	return &Termination{Code: code, Location: location}
}

// Recover runs fn and returns the termination it aborted with, or nil.
// Panics that are not terminations propagate.
func Recover(fn func()) (t *Termination) {
	defer func() {
		if r := recover(); r != nil {
			term, ok := r.(*Termination)
			if !ok {
				panic(r)
			}
			t = term
		}
	}()
	fn()
	return nil
}

// HTTPManager aborts by panicking with a *Termination.
type HTTPManager struct {
	logger *zap.Logger
}

// NewHTTPManager creates the manager used behind the HTTP server.
func NewHTTPManager(logger *zap.Logger) *HTTPManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPManager{logger: logger}
}

// Boot implements Manager.
func (m *HTTPManager) Boot(ctx context.Context) error { return nil }

// Abort implements Manager.
func (m *HTTPManager) Abort(ctx context.Context, code int, message, title string, args map[string]any) {
	t := newTermination(code, message, title, args)
	m.logger.Info("request aborted", zap.Int("code", t.Code), zap.String("title", title))
	panic(t)
}

// Redirect implements Manager.
func (m *HTTPManager) Redirect(ctx context.Context, location string, code int) {
	t := newRedirect(location, code)
	m.logger.Debug("request redirected", zap.Int("code", t.Code), zap.String("location", location))
	panic(t)
}

// CLIManager aborts by writing to out and exiting.
type CLIManager struct {
	out  io.Writer
	exit func(int)
}

// NewCLIManager creates a manager for command-line runs.
func NewCLIManager(out io.Writer, exit func(int)) *CLIManager {
	if out == nil {
		out = os.Stderr
	}
	if exit == nil {
		exit = os.Exit
	}
	return &CLIManager{out: out, exit: exit}
}

// Boot implements Manager.
func (m *CLIManager) Boot(ctx context.Context) error { return nil }

// Abort implements Manager.
func (m *CLIManager) Abort(ctx context.Context, code int, message, title string, args map[string]any) {
	t := newTermination(code, message, title, args)
	if title != "" {
		fmt.Fprintf(m.out, "%s: ", title)
	}
	fmt.Fprintln(m.out, t.Error())
	m.exit(1)
	// exit may be stubbed; Abort must still not return.
	panic(t)
}

// Redirect implements Manager.
func (m *CLIManager) Redirect(ctx context.Context, location string, code int) {
	t := newRedirect(location, code)
	fmt.Fprintln(m.out, t.Error())
	m.exit(0)
	panic(t)
}

// Constructor builds a manager.
type Constructor func(logger *zap.Logger) Manager

var managers = map[string]Constructor{
	"http": func(l *zap.Logger) Manager { return NewHTTPManager(l) },
	"cli":  func(*zap.Logger) Manager { return NewCLIManager(nil, nil) },
}

// Names returns the known manager names, sorted.
func Names() []string {
	names := make([]string, 0, len(managers))
	for n := range managers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the manager registered under name.
func New(name string, logger *zap.Logger) (Manager, error) {
	ctor, ok := managers[name]
	if !ok {
		return nil, fmt.Errorf("%w: expected one of [%s] under abort.manager, got %q",
			ErrUnknownManager, strings.Join(Names(), ", "), name)
	}
	return ctor(logger), nil
}
