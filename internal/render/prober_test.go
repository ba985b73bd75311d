package render

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  int
	// hook runs before returning, with the invoked args; lets tests emulate
	// converter side effects like writing output files.
	hook func(name string, args []string) error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls++
	if f.hook != nil {
		if err := f.hook(name, args); err != nil {
			return nil, nil, err
		}
	}
	return f.stdout, f.stderr, f.err
}

func errNotFound() error {
	return &exec.Error{Name: "pdftoppm", Err: exec.ErrNotFound}
}

func TestProberAvailableOnCleanExit(t *testing.T) {
	p := NewProber(&fakeRunner{stderr: []byte("pdftoppm version 23.04.0")}, "pdftoppm", 0, nil)
	assert.True(t, p.Available(context.Background()))
}

func TestProberUnavailableWhenMissing(t *testing.T) {
	p := NewProber(&fakeRunner{err: errNotFound()}, "pdftoppm", 0, nil)
	assert.False(t, p.Available(context.Background()))
}

func TestProberAcceptsBannerOnNonZeroExit(t *testing.T) {
	r := &fakeRunner{
		stderr: []byte("pdftoppm version 22.02.0\nCopyright ..."),
		err:    errors.New("exit status 99"),
	}
	p := NewProber(r, "pdftoppm", 0, nil)
	assert.True(t, p.Available(context.Background()))
}

func TestProberUnavailableOnOpaqueFailure(t *testing.T) {
	p := NewProber(&fakeRunner{err: errors.New("exit status 1")}, "pdftoppm", 0, nil)
	assert.False(t, p.Available(context.Background()))
}

func TestProberCachesResult(t *testing.T) {
	r := &fakeRunner{stderr: []byte("pdftoppm version 23.04.0")}
	p := NewProber(r, "pdftoppm", 0, nil)

	assert.True(t, p.Available(context.Background()))
	assert.True(t, p.Available(context.Background()))
	assert.True(t, p.Available(context.Background()))
	assert.Equal(t, 1, r.calls, "probe must run once per process")
}
