package pdftext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout []byte
	err    error

	gotName string
	gotArgs []string
	gotCtx  context.Context
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.gotCtx = ctx
	f.gotName = name
	f.gotArgs = args
	return f.stdout, nil, f.err
}

func TestConvertInvokesPdftotext(t *testing.T) {
	r := &fakeRunner{stdout: []byte("ЧЕК 39\n")}
	c := NewConverterWithRunner(Config{}, r, nil)

	text, err := c.Convert(context.Background(), "/slip/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ЧЕК 39\n", text)
	assert.Equal(t, "pdftotext", r.gotName)
	assert.Equal(t, []string{"/slip/a.pdf", "-"}, r.gotArgs)

	// the per-file budget is attached to the subprocess context
	_, ok := r.gotCtx.Deadline()
	assert.True(t, ok)
}

func TestConvertCustomBinary(t *testing.T) {
	r := &fakeRunner{}
	c := NewConverterWithRunner(Config{Pdftotext: "/opt/poppler/bin/pdftotext", Timeout: time.Second}, r, nil)

	_, err := c.Convert(context.Background(), "/slip/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/opt/poppler/bin/pdftotext", r.gotName)
}

func TestConvertPropagatesExecFailure(t *testing.T) {
	execErr := errors.New(`exec: "pdftotext": executable file not found in $PATH`)
	c := NewConverterWithRunner(Config{}, &fakeRunner{err: execErr}, nil)

	_, err := c.Convert(context.Background(), "/slip/a.pdf")
	assert.ErrorIs(t, err, execErr)
}
