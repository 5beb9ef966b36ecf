package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsEmptyAddr(t *testing.T) {
	_, err := Connect(context.Background(), Options{Addr: " "})
	require.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	got := Options{Addr: "localhost:6379", IOTimeout: time.Second}.withDefaults()
	assert.Equal(t, 5*time.Second, got.DialTimeout)
	assert.Equal(t, time.Second, got.IOTimeout)
}
