package gridsync

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCloser is a test double that implements io.Closer
type mockCloser struct {
	closeErr   error
	closeCalls int
}

func (m *mockCloser) Close() error {
	m.closeCalls++
	return m.closeErr
}

func TestCloseWithLog_NilCloser(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(nil, logger, "catalogue connection")

	assert.Empty(t, logBuf.String(), "should not log for nil closer")
}

func TestCloseWithLog_SuccessfulClose(t *testing.T) {
	closer := &mockCloser{}
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(closer, logger, "catalogue connection")

	assert.Equal(t, 1, closer.closeCalls, "should call Close once")
	assert.Empty(t, logBuf.String(), "should not log on successful close")
}

func TestCloseWithLog_CloseError(t *testing.T) {
	closer := &mockCloser{closeErr: errors.New("close failed: connection reset")}
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(closer, logger, "redis backend")

	assert.Equal(t, 1, closer.closeCalls)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "failed to close resource")
	assert.Contains(t, logOutput, "redis backend")
	assert.Contains(t, logOutput, "close failed")
	assert.Contains(t, logOutput, "level=WARN")
}

func TestCloseWithLog_NilLogger(t *testing.T) {
	closer := &mockCloser{closeErr: errors.New("test error")}

	require.NotPanics(t, func() {
		CloseWithLog(closer, nil, "snapshot database")
	})
	assert.Equal(t, 1, closer.closeCalls)
}

func TestCloseWithLog_DeferPattern(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	ok := &mockCloser{}
	failing := &mockCloser{closeErr: errors.New("cleanup error")}

	func() {
		defer CloseWithLog(failing, logger, "registry client")
		defer CloseWithLog(ok, logger, "catalogue connection")
	}()

	assert.Equal(t, 1, ok.closeCalls)
	assert.Equal(t, 1, failing.closeCalls)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "registry client")
	assert.NotContains(t, logOutput, "catalogue connection", "successful closes are not logged")
}
