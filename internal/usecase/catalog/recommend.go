package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/domain/beatmap"
	"konbot/internal/errs"
	"konbot/internal/ports"
)

type RecommendInput struct {
	QQID          int64
	BID           int64
	SubmitterName string
	// UserType is nil when the submitter did not assert a classification.
	UserType    *beatmap.Type
	Description string
}

// DefaultDescription fills the recommendation description when the submitter
// left it empty. The exact string doubles as a sentinel when rendering old
// recommendations, so it must stay stable.
const DefaultDescription = "TA没有填写描述！"

type RecommendResult struct {
	RecommendationID int64
	Metadata         ports.BeatmapMetadata
	// CatalogType is the catalog classification after reconciliation.
	CatalogType beatmap.Type
	// RecommendationType is what this submission itself voted for: the
	// asserted type when present, the model verdict otherwise. On a
	// manually locked row it can differ from CatalogType.
	RecommendationType beatmap.Type
	ModelType          beatmap.Type
	// ReviewReason is non-empty when the submission landed in the pending
	// review queue.
	ReviewReason beatmap.ReviewReason
	Advisories   []beatmap.Advisory
}

// Recommend records a recommendation: it fetches official metadata and the
// model verdict concurrently, reconciles them with the submitter's asserted
// type and the existing catalog row, then persists the whole outcome in one
// transaction. A metadata failure aborts with ErrMetadataUnavailable; a
// model failure degrades per the reconciliation rules instead of aborting.
func (s *Service) Recommend(ctx context.Context, input RecommendInput) (RecommendResult, error) {
	if input.BID <= 0 {
		return RecommendResult{}, errBIDRequired
	}
	if input.Description == "" {
		input.Description = DefaultDescription
	}

	var (
		meta     ports.BeatmapMetadata
		rawProbs map[string]float64
		modelRan bool
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := s.provider.FetchBeatmap(groupCtx, input.BID)
		if err != nil {
			return errs.Wrap(err, "fetch beatmap metadata")
		}
		meta = fetched
		return nil
	})
	group.Go(func() error {
		probs, err := s.classifier.Classify(groupCtx, input.BID)
		if err != nil {
			// A dead model is a degraded submission, not a failed one.
			logging.Warn(groupCtx, "classification service failed",
				slog.Int64("bid", input.BID),
				slog.Any("error", errs.Loggable(err)))
			return nil
		}
		rawProbs = probs
		modelRan = true
		return nil
	})
	if err := group.Wait(); err != nil {
		return RecommendResult{}, errs.WithKind(fmt.Errorf("%w: %w", ErrMetadataUnavailable, err), errs.KindExternal)
	}

	probs := beatmap.NormalizeProbabilities(rawProbs, s.aliases)

	var result RecommendResult
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var existing *beatmap.AnalysisState
		row, err := s.repo.GetAnalysis(txCtx, input.BID)
		switch {
		case err == nil:
			existing = &beatmap.AnalysisState{
				DeterminedType: row.DeterminedType,
				IsAutoTyped:    row.IsAutoTyped,
			}
		case errors.Is(err, ports.ErrAnalysisNotFound):
			// first sighting of this beatmap
		default:
			return err
		}

		resolution := beatmap.Resolve(existing, input.UserType, probs, modelRan)
		now := s.now()

		if err := s.repo.UpsertBeatmapInfo(txCtx, metadataToInfo(meta, now)); err != nil {
			return err
		}

		if resolution.Write != nil {
			switch resolution.Write.Mode {
			case beatmap.WriteOverwrite:
				overwrite := ports.AnalysisOverwrite{
					BID:            input.BID,
					DeterminedType: resolution.Write.DeterminedType,
					Probabilities:  resolution.Write.Probabilities,
				}
				if modelRan {
					overwrite.ModelRanAt = &now
				}
				if err := s.repo.OverwriteAnalysis(txCtx, overwrite); err != nil {
					return err
				}
			case beatmap.WriteProbabilitiesOnly:
				if err := s.repo.RefreshAnalysisProbabilities(txCtx, input.BID, resolution.Write.Probabilities, now); err != nil {
					return err
				}
			}
		}

		var submitterName *string
		if input.SubmitterName != "" {
			submitterName = &input.SubmitterName
		}
		recommendationID, err := s.repo.CreateRecommendation(txCtx, ports.RecommendationCreate{
			QQID:              input.QQID,
			BID:               input.BID,
			SubmitterName:     submitterName,
			UserRequestedType: input.UserType,
			ActualType:        resolution.RecommendationType,
			Description:       input.Description,
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}

		if resolution.Review != nil {
			if err := s.repo.UpsertPendingReview(txCtx, ports.PendingReviewUpsert{
				BID:                         input.BID,
				Reason:                      resolution.Review.Reason,
				TriggeredByRecommendationID: &recommendationID,
				EnqueuedAt:                  now,
			}); err != nil {
				return err
			}
			result.ReviewReason = resolution.Review.Reason
		}

		result.RecommendationID = recommendationID
		result.CatalogType = resolution.CatalogType
		result.RecommendationType = resolution.RecommendationType
		result.ModelType = resolution.ModelType
		result.Advisories = resolution.Advisories
		return nil
	})
	if err != nil {
		return RecommendResult{}, err
	}

	result.Metadata = meta
	logging.Info(ctx, "recommendation recorded",
		slog.Int64("bid", input.BID),
		slog.Int64("qqid", input.QQID),
		slog.Int64("recommendation_id", result.RecommendationID),
		slog.String("catalog_type", string(result.CatalogType)),
		slog.String("review_reason", string(result.ReviewReason)))
	return result, nil
}

func metadataToInfo(meta ports.BeatmapMetadata, fetchedAt time.Time) ports.BeatmapInfo {
	return ports.BeatmapInfo{
		BID:           meta.BID,
		Title:         meta.Title,
		Artist:        meta.Artist,
		CreatorName:   meta.CreatorName,
		CreatorID:     meta.CreatorID,
		DiffName:      meta.DiffName,
		StarRating:    meta.StarRating,
		Status:        meta.Status,
		AR:            meta.AR,
		OD:            meta.OD,
		CS:            meta.CS,
		HP:            meta.HP,
		LengthSeconds: meta.LengthSeconds,
		BPM:           meta.BPM,
		FetchedAt:     fetchedAt,
	}
}
