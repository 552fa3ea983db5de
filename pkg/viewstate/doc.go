// Package viewstate delivers list state snapshots to a view layer.
//
// A Sink receives values under a namespaced Key. Keys are value objects
// built once when a list is registered and reused for every push:
//
//	key := viewstate.NewKey("listPage", "list").Child("orders")
//	key.String() // "listPage.list.orders"
//
// # Sinks
//
// RedisSink stores each pushed value as a JSON Entry in Redis so that a
// renderer in another process can read it:
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	sink := viewstate.NewRedisSink(redisClient, viewstate.DefaultRedisConfig())
//
//	if err := sink.Push(ctx, key, list.State()); err != nil {
//		return err
//	}
//
//	entry, err := sink.Get(ctx, key)
//	if err == viewstate.ErrNotFound {
//		// nothing pushed yet
//	}
//
// MemorySink keeps the latest value per key in a bounded LRU, for hosts
// that render in-process and for tests.
//
// # Metrics
//
//   - listpage_sink_pushes_total{sink} - Pushes by sink
//   - listpage_sink_errors_total{operation} - Sink operation errors
//   - listpage_sink_bytes_total - Bytes written to Redis
package viewstate
