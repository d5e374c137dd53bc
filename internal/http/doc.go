// Package http provides a thin HTTP client for talking to a remote media
// service.
//
// This package handles:
//   - Connection pooling for high parallelism against a single host
//   - GET for media payloads and JSON indexes
//   - DELETE for remote removal
//   - Mapping status codes to sentinel errors
//
// It deliberately does NOT retry. Each call is a single attempt; the
// retrying worker owns backoff policy so retries are counted exactly once.
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    MaxIdleConnsPerHost: 100,
//	    Timeout:             30 * time.Second,
//	})
//
//	body, err := client.Get(ctx, itemURL)
//	defer body.Close()
package http
