//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

// MediaItem is one asset served by the test media server.
type MediaItem struct {
	Filename string
	Created  time.Time
	Data     []byte
}

// MediaServer is an httptest-backed media library: a JSON index at
// /items.json, GET /media/<name> for payloads, DELETE /media/<name> for
// removal. Failure injection makes the first N requests per item return 500,
// which exercises the retry path end to end.
type MediaServer struct {
	Server *httptest.Server

	mu           sync.Mutex
	items        []MediaItem
	deleted      map[string]bool
	failGets     map[string]int
	failDeletes  map[string]int
	getCounts    map[string]int
	deleteCounts map[string]int
}

// StartMediaServer starts a media server holding the given items. The server
// is shut down when the test finishes.
func StartMediaServer(t *testing.T, items []MediaItem) *MediaServer {
	t.Helper()

	ms := &MediaServer{
		items:        items,
		deleted:      make(map[string]bool),
		failGets:     make(map[string]int),
		failDeletes:  make(map[string]int),
		getCounts:    make(map[string]int),
		deleteCounts: make(map[string]int),
	}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.handle))
	t.Cleanup(ms.Server.Close)
	return ms
}

// IndexURL returns the URL of the JSON item index.
func (ms *MediaServer) IndexURL() string {
	return ms.Server.URL + "/items.json"
}

// FailGets makes the next n GET requests for name return 500.
func (ms *MediaServer) FailGets(name string, n int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failGets[name] = n
}

// FailDeletes makes the next n DELETE requests for name return 500.
func (ms *MediaServer) FailDeletes(name string, n int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failDeletes[name] = n
}

// Deleted reports whether name has been deleted.
func (ms *MediaServer) Deleted(name string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.deleted[name]
}

// GetCount returns the number of GET requests seen for name.
func (ms *MediaServer) GetCount(name string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.getCounts[name]
}

// DeleteCount returns the number of DELETE requests seen for name.
func (ms *MediaServer) DeleteCount(name string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.deleteCounts[name]
}

func (ms *MediaServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/items.json" {
		ms.serveIndex(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/media/")
	if name == r.URL.Path || name == "" {
		http.NotFound(w, r)
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.find(name)
	if !ok || ms.deleted[name] {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ms.getCounts[name]++
		if ms.failGets[name] > 0 {
			ms.failGets[name]--
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		w.Write(item.Data)
	case http.MethodDelete:
		ms.deleteCounts[name]++
		if ms.failDeletes[name] > 0 {
			ms.failDeletes[name]--
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		ms.deleted[name] = true
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (ms *MediaServer) serveIndex(w http.ResponseWriter) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	type indexEntry struct {
		Filename string    `json:"filename"`
		Created  time.Time `json:"created"`
		URL      string    `json:"url"`
	}

	var index []indexEntry
	for _, item := range ms.items {
		if ms.deleted[item.Filename] {
			continue
		}
		index = append(index, indexEntry{
			Filename: item.Filename,
			Created:  item.Created,
			URL:      "/media/" + item.Filename,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(index)
}

func (ms *MediaServer) find(name string) (MediaItem, bool) {
	for _, item := range ms.items {
		if item.Filename == name {
			return item, true
		}
	}
	return MediaItem{}, false
}

// MinioEnv contains connection information for a Minio test environment.
type MinioEnv struct {
	Container testcontainers.Container
	BucketURL string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Close terminates the Minio container.
func (e *MinioEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// OpenBucket opens a gocloud bucket connection to the Minio environment.
func (e *MinioEnv) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, e.BucketURL)
}

// StartMinioContainer starts a Minio container with a pre-created bucket.
// Returns a MinioEnv with connection information.
func StartMinioContainer(t *testing.T, ctx context.Context, bucketName string) *MinioEnv {
	t.Helper()

	const (
		accessKey = "minioadmin"
		secretKey = "minioadmin"
	)

	// Create a network for minio and mc to communicate
	networkName := fmt.Sprintf("minio-test-net-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name: networkName,
		},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(ctx) })

	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Networks:     []string{networkName},
		NetworkAliases: map[string][]string{
			networkName: {"minio"},
		},
		Env: map[string]string{
			"MINIO_ROOT_USER":     accessKey,
			"MINIO_ROOT_PASSWORD": secretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
	}

	minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}

	createBucketWithMC(t, ctx, networkName, accessKey, secretKey, bucketName)

	host, err := minioContainer.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}

	port, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	bucketURL := fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
		bucketName,
		endpoint,
	)

	// gocloud reads AWS credentials from the environment
	t.Setenv("AWS_ACCESS_KEY_ID", accessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", secretKey)

	return &MinioEnv{
		Container: minioContainer,
		BucketURL: bucketURL,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
	}
}

// createBucketWithMC creates a bucket using a separate minio/mc container.
func createBucketWithMC(t *testing.T, ctx context.Context, networkName, accessKey, secretKey, bucketName string) {
	t.Helper()

	// mc container runs, creates the bucket, then exits
	mcReq := testcontainers.ContainerRequest{
		Image:      "minio/mc:latest",
		Networks:   []string{networkName},
		Entrypoint: []string{"/bin/sh", "-c"},
		Cmd: []string{
			fmt.Sprintf(
				"/usr/bin/mc config host add myminio http://minio:9000 %s %s && "+
					"/usr/bin/mc mb myminio/%s && "+
					"/usr/bin/mc policy set download myminio/%s; "+
					"exit 0",
				accessKey, secretKey, bucketName, bucketName,
			),
		},
		WaitingFor: wait.ForExit(),
	}

	mcContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: mcReq,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mc container: %v", err)
	}
	defer mcContainer.Terminate(ctx)
}
