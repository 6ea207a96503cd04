package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubServer struct {
	stopped bool
	err     error
}

func (s *stubServer) Shutdown(ctx context.Context) error {
	s.stopped = true
	return s.err
}

func TestShutdownAllStopsEveryServer(t *testing.T) {
	first := &stubServer{err: errors.New("busy")}
	second := &stubServer{}
	err := shutdownAll(time.Second, first, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
	assert.True(t, first.stopped)
	assert.True(t, second.stopped)
}

func TestServeReleasesListenerOnCancel(t *testing.T) {
	_, g, _ := startFake(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- (&serveCmd{Addr: addr}).Run(ctx, g) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}
