package ingest

import (
	"context"
)

// File is one fetched resume file, the unit handed to the batch
// orchestrator regardless of which source produced it.
type File struct {
	Name string
	Data []byte
}

// FetchOptions narrows what a source looks at: a mailbox search query for
// mail sources, a folder scope for drive sources.
type FetchOptions struct {
	Query    string
	FolderID string
}

// Source fetches resume files from an external system.
type Source interface {
	Fetch(ctx context.Context, opts FetchOptions) ([]File, error)
}
