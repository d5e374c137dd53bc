package source

import (
	"context"
	"io"
	"time"
)

// Item is one remote media asset. Filename is the stable identifier used
// for dedup and as the archive entry name; Created is the asset's original
// creation time; URL is the opaque handle used to download or delete it.
//
// Items are immutable once listed.
type Item struct {
	Filename string    `json:"filename"`
	Created  time.Time `json:"created"`
	URL      string    `json:"url"`
}

// Library is the remote media service. Implementations are expected to be
// safe for concurrent use; Download and Delete may fail transiently and are
// retried by the caller.
type Library interface {
	// List returns every item in the library, in the service's listing
	// order.
	List(ctx context.Context) ([]Item, error)

	// Download returns the item's payload. The caller must close the
	// returned reader.
	Download(ctx context.Context, item Item) (io.ReadCloser, error)

	// Delete removes the item from the remote service.
	Delete(ctx context.Context, item Item) error
}
