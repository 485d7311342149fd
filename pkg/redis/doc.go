// Package redis connects to the Redis server backing the notification
// archive.
//
// Connect retries until the server answers a ping or the attempt budget is
// spent:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		// no archive available
//	}
//	defer client.Close()
//
// Config fields are populated from environment variables via pkg/config.
// Sentinel errors wrap the driver errors with errors.Join so callers can
// use errors.Is.
package redis
