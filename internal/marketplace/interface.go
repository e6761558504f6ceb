package marketplace

import (
	"context"

	"vsxdl/internal/models"
)

// Searcher runs free-text catalog searches.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*models.SearchResult, error)
}

// VersionFetcher returns the full version history of one extension.
type VersionFetcher interface {
	FetchVersions(ctx context.Context, extensionID string) ([]models.Version, error)
}

// Gallery is everything the client needs from the remote catalog.
type Gallery interface {
	Searcher
	VersionFetcher
	Lookup(ctx context.Context, extensionID string) (*models.Extension, error)
}
