package bootstrap

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/marketplace-backend/config"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/notify"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewApp_MemoryWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Redis:    config.RedisConfig{Addr: mr.Addr(), QueueKey: "q"},
	}

	app, err := NewApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.SQL)
	assert.NotNil(t, app.Profiles)
	assert.NotNil(t, app.Redis)
	assert.IsType(t, &notify.RedisQueue{}, app.Notifier)
}

func TestNewApp_MemoryWithoutRedis(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "memory"}}

	app, err := NewApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &notify.LogDispatcher{}, app.Notifier)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "memory"},
		Redis:    config.RedisConfig{Addr: "127.0.0.1:1"},
	}
	_, err := NewApp(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}
