package main

import (
	"context"
	"io"
	gohttp "net/http"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHTTP(t *testing.T) {
	h := gohttp.HandlerFunc(func(w gohttp.ResponseWriter, _ *gohttp.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	_, err := serveHTTP("127.0.0.1:99999", h)
	assert.Error(t, err, "Invalid listen address should fail before serving.")

	server, err := serveHTTP("127.0.0.1:0", h)
	require.NoError(t, err, "Should create listener.")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server(ctx, log.NewNopLogger()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "Shutdown should be clean.")
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down.")
	}
}
