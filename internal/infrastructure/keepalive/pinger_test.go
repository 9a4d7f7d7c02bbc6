package keepalive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/genguard/internal/domain/service/mocks"
	redisstore "github.com/turtacn/genguard/internal/infrastructure/persistence/redis"
	"github.com/turtacn/genguard/pkg/logger"
)

func TestPinger_PingWritesTimestamp(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewPinger(redisstore.NewKVStore(client), "", 0, logger.NewNoopLogger(), nil)
	p.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	require.NoError(t, p.Ping(context.Background()))

	val, err := mr.Get("ping:timestamp")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T05:06:07Z", val)
	assert.Zero(t, mr.TTL("ping:timestamp"))
}

func TestPinger_RunKeepsGoingAfterErrors(t *testing.T) {
	store := new(mocks.MockKeyValueStore)
	calls := make(chan struct{}, 10)
	store.On("Set", mock.Anything, "ping:timestamp", mock.AnythingOfType("string"), time.Duration(0)).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}).
		Return(errors.New("timeout"))

	p := NewPinger(store, "ping:timestamp", 10*time.Millisecond, logger.NewNoopLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("expected ping %d", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
