// Package catalog holds the application services that reconcile
// recommendation submissions, administrator overrides and catalog queries.
package catalog

import (
	"errors"
	"time"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
)

var (
	// ErrMetadataUnavailable means the official API could not confirm the
	// beatmap exists; nothing was recorded.
	ErrMetadataUnavailable = errors.New("beatmap metadata unavailable")
	errBIDRequired         = errors.New("beatmap id is required")
	errReviewerRequired    = errors.New("reviewer is required")
)

type Service struct {
	repo       ports.CatalogRepository
	uow        ports.UnitOfWork
	provider   ports.BeatmapProvider
	classifier ports.Classifier
	aliases    beatmap.AliasTable
	now        func() time.Time
}

// NewService wires the catalog usecases. aliases may be nil, in which case
// the built-in table is used.
func NewService(
	repo ports.CatalogRepository,
	uow ports.UnitOfWork,
	provider ports.BeatmapProvider,
	classifier ports.Classifier,
	aliases beatmap.AliasTable,
) *Service {
	if aliases == nil {
		aliases = beatmap.DefaultAliases()
	}
	return &Service{
		repo:       repo,
		uow:        uow,
		provider:   provider,
		classifier: classifier,
		aliases:    aliases,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Aliases exposes the active alias table so the chat layer parses type
// labels with the same vocabulary the normalizer uses.
func (s *Service) Aliases() beatmap.AliasTable {
	return s.aliases
}
