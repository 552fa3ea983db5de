//go:build integration

package viewstate

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisSink_Integration_OverwriteLatest(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	sink := NewRedisSink(client, DefaultRedisConfig())
	ctx := context.Background()
	key := NewKey("listPage", "list", "orders")

	pushes := []snapshot{
		{Items: []string{}, CurrentPage: 0},
		{Items: []string{"a"}, CurrentPage: 1},
		{Items: []string{"a", "b"}, CurrentPage: 2},
	}
	for i, state := range pushes {
		if err := sink.Push(ctx, key, state); err != nil {
			t.Fatalf("Push #%d error = %v", i+1, err)
		}
	}

	entry, err := sink.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var got snapshot
	if err := entry.Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.CurrentPage != 2 || len(got.Items) != 2 {
		t.Errorf("latest state = %+v, want page 2 with 2 items", got)
	}

	keys, err := client.Keys(ctx, "listpage:*").Result()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Redis holds %d keys, want 1", len(keys))
	}
}

func TestRedisSink_Integration_Delete(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	sink := NewRedisSink(client, DefaultRedisConfig())
	ctx := context.Background()
	key := NewKey("listPage", "activeListName")

	if err := sink.Push(ctx, key, "orders"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := sink.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := sink.Get(ctx, key); err != ErrNotFound {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}
}
