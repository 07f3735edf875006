package catalog

import (
	"context"
	"errors"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
)

// Overview is everything the chat layer shows for one beatmap: fresh
// official metadata, the catalog's classification if any, and a sample of
// recorded recommendations.
type Overview struct {
	Metadata ports.BeatmapMetadata
	// Analysis is nil when the beatmap was never classified.
	Analysis        *ports.BeatmapAnalysis
	ModelType       beatmap.Type
	Recommendations []ports.Recommendation
}

const overviewSampleSize = 3

// Analysis returns the catalog's classification row for a beatmap.
func (s *Service) Analysis(ctx context.Context, bid int64) (ports.BeatmapAnalysis, error) {
	return s.repo.GetAnalysis(ctx, bid)
}

// RecommendationSample returns a few recorded recommendations for a beatmap,
// for display next to its catalog entry.
func (s *Service) RecommendationSample(ctx context.Context, bid int64) ([]ports.Recommendation, error) {
	return s.repo.SampleRecommendations(ctx, bid, overviewSampleSize)
}

// BeatmapOverview fetches live metadata and joins it with the catalog state.
// The metadata fetch is authoritative; catalog rows are optional extras.
func (s *Service) BeatmapOverview(ctx context.Context, bid int64) (Overview, error) {
	if bid <= 0 {
		return Overview{}, errBIDRequired
	}

	meta, err := s.provider.FetchBeatmap(ctx, bid)
	if err != nil {
		return Overview{}, err
	}
	overview := Overview{Metadata: meta}

	analysis, err := s.repo.GetAnalysis(ctx, bid)
	switch {
	case err == nil:
		overview.Analysis = &analysis
		overview.ModelType = beatmap.ModelTypeFromProbabilities(analysis.Probabilities)
	case errors.Is(err, ports.ErrAnalysisNotFound):
	default:
		return Overview{}, err
	}

	recs, err := s.repo.SampleRecommendations(ctx, bid, overviewSampleSize)
	if err != nil {
		return Overview{}, err
	}
	overview.Recommendations = recs
	return overview, nil
}
