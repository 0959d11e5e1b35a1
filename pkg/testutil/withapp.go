package testutil

import (
	"fmt"
	"testing"

	"github.com/arthur-debert/docfix/pkg/errors"
)

// errAborted is the teardown cause when a body exits without returning, as
// t.FailNow does
var errAborted = errors.New(errors.ErrInternal, "fixture body did not return")

// PanicError carries a value recovered from a panicking fixture body to Cleanup
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// WithApp returns a function that runs fn against a fresh TestApp built from
// opts. The argument given to the returned function is passed through to fn
// with the fixture after it.
//
// Teardown always runs once a fixture exists: Cleanup(nil) when fn succeeds
// (its error is returned), Cleanup(err) when fn fails (err is returned
// unchanged) and Cleanup with a *PanicError when fn panics (the panic then
// continues). When construction fails fn is not called and the construction
// error is returned.
func WithApp[A any](opts Options, fn func(A, *TestApp) error) func(A) error {
	return func(arg A) error {
		app, err := NewTestApp(opts)
		if err != nil {
			return err
		}

		returned := false
		defer func() {
			if returned {
				return
			}
			r := recover()
			if cerr := app.Cleanup(teardownCause(r, false, false)); cerr != nil {
				log.Error().Err(cerr).Msg("Fixture teardown failed")
			}
			if r != nil {
				panic(r)
			}
		}()

		err = fn(arg, app)
		returned = true

		if err != nil {
			if cerr := app.Cleanup(err); cerr != nil {
				log.Error().Err(cerr).Msg("Fixture teardown failed")
			}
			return err
		}
		return app.Cleanup(nil)
	}
}

// Run runs fn against a fresh TestApp and tears it down when fn is done.
// Teardown is told about failure when the test failed, called t.FailNow or
// panicked. A fixture that cannot be constructed fails the test immediately.
func Run(t *testing.T, opts Options, fn func(t *testing.T, app *TestApp)) {
	t.Helper()

	app, err := NewTestApp(opts)
	if err != nil {
		t.Fatalf("cannot construct fixture: %v", err)
	}

	returned := false
	defer func() {
		r := recover()
		if cerr := app.Cleanup(teardownCause(r, returned, t.Failed())); cerr != nil {
			t.Errorf("fixture teardown: %v", cerr)
		}
		if r != nil {
			panic(r)
		}
	}()

	fn(t, app)
	returned = true
}

// errTestFailed is the teardown cause when a test body returned after
// reporting a failure
var errTestFailed = errors.New(errors.ErrInternal, "test failed")

// teardownCause picks the error WithApp and Run hand to Cleanup. A nil
// result means the body returned and the test passed.
func teardownCause(recovered interface{}, returned, failed bool) error {
	switch {
	case recovered != nil:
		return &PanicError{Value: recovered}
	case !returned:
		return errAborted
	case failed:
		return errTestFailed
	}
	return nil
}
