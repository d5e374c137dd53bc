package source

import (
	"context"
	"fmt"
	"io"
	"net/url"

	offloadhttp "github.com/ligustah/offload/internal/http"
)

// HTTPLibrary is a Library served over HTTP: a JSON index listing the
// items, GET per item for the payload, DELETE per item for removal.
//
// The index is an array of objects:
//
//	[{"filename": "IMG_0001.JPG", "created": "2019-06-01T12:30:00Z", "url": "/media/IMG_0001.JPG"}, ...]
//
// Item URLs may be relative; they are resolved against the index URL.
type HTTPLibrary struct {
	indexURL string
	client   *offloadhttp.Client
}

// NewHTTPLibrary creates a library reading its item index from indexURL.
func NewHTTPLibrary(indexURL string, client *offloadhttp.Client) *HTTPLibrary {
	return &HTTPLibrary{indexURL: indexURL, client: client}
}

// List fetches and decodes the item index.
func (l *HTTPLibrary) List(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := l.client.GetJSON(ctx, l.indexURL, &items); err != nil {
		return nil, fmt.Errorf("fetch item index: %w", err)
	}

	base, err := url.Parse(l.indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index URL: %w", err)
	}
	for i := range items {
		resolved, err := resolveURL(base, items[i].URL)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", items[i].Filename, err)
		}
		items[i].URL = resolved
	}

	return items, nil
}

// Download fetches the item's payload.
func (l *HTTPLibrary) Download(ctx context.Context, item Item) (io.ReadCloser, error) {
	return l.client.Get(ctx, item.URL)
}

// Delete removes the item from the remote service.
func (l *HTTPLibrary) Delete(ctx context.Context, item Item) error {
	return l.client.Delete(ctx, item.URL)
}

func resolveURL(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse item URL: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}
