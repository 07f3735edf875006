package catalog

import (
	"context"
	"errors"

	"konbot/internal/ports"
)

// maxRandomPicks caps one random request so a typo cannot dump the catalog
// into a chat group.
const maxRandomPicks = 5

// ErrNoCatalogMatch means the random query matched nothing.
var ErrNoCatalogMatch = errors.New("no catalog entry matches the query")

// RandomPicks draws up to query.Count random cataloged beatmaps matching the
// type and numeric filters.
func (s *Service) RandomPicks(ctx context.Context, query ports.RandomQuery) ([]ports.CatalogEntry, error) {
	if query.Count <= 0 {
		query.Count = 1
	}
	if query.Count > maxRandomPicks {
		query.Count = maxRandomPicks
	}
	entries, err := s.repo.RandomCatalogPicks(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoCatalogMatch
	}
	return entries, nil
}
