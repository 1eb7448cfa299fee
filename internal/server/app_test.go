package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/server/bulletins"
	"github.com/dmitrijs2005/reportkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.BulletinDir = t.TempDir()
	return c
}

func TestNewStore(t *testing.T) {
	c := testConfig(t)

	s, err := newStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &bulletins.DirStore{}, s)

	c.S3Bucket = "reports"
	s, err = newStore(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &bulletins.S3Store{}, s)
}

func TestTokenSecret(t *testing.T) {
	s, err := tokenSecret("configured")
	require.NoError(t, err)
	assert.Equal(t, "configured", s)

	a, err := tokenSecret("")
	require.NoError(t, err)
	b, err := tokenSecret("")
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_RunBadAddress(t *testing.T) {
	c := testConfig(t)
	c.EndpointAddrGRPC = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}
