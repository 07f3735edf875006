package catalog

import (
	"context"
	"errors"
	"log/slog"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/domain/beatmap"
	"konbot/internal/errs"
	"konbot/internal/ports"
)

type OverrideInput struct {
	BID      int64
	NewType  beatmap.Type
	Reviewer string
}

// Override is the administrator classification override: it fixes the
// determined type, locks the row against future automatic overwrites and
// clears any pending review entry, all in one transaction. The beatmap must
// already have an analysis row.
func (s *Service) Override(ctx context.Context, input OverrideInput) error {
	if input.BID <= 0 {
		return errBIDRequired
	}
	if input.Reviewer == "" {
		return errReviewerRequired
	}
	if !beatmap.IsCanonical(input.NewType) {
		return errs.WithKind(beatmap.ErrInvalidType, errs.KindInvalidInput)
	}

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		updated, err := s.repo.SetManualClassification(txCtx, input.BID, input.NewType, input.Reviewer, s.now())
		if err != nil {
			return err
		}
		if !updated {
			return errs.WithKind(ports.ErrAnalysisNotFound, errs.KindNotFound)
		}
		return s.repo.DeletePendingReview(txCtx, input.BID)
	})
	if err != nil {
		return err
	}

	logging.Info(ctx, "classification overridden",
		slog.Int64("bid", input.BID),
		slog.String("new_type", string(input.NewType)),
		slog.String("reviewer", input.Reviewer))
	return nil
}

// PendingReviewItem pairs a queue entry with whatever metadata snapshot the
// catalog has for it. Info is nil when the beatmap was never fetched.
type PendingReviewItem struct {
	Review ports.PendingReview
	Info   *ports.BeatmapInfo
}

// PendingReviews lists the review queue, newest first.
func (s *Service) PendingReviews(ctx context.Context, limit int) ([]PendingReviewItem, error) {
	if limit <= 0 {
		limit = 20
	}
	reviews, err := s.repo.ListPendingReviews(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]PendingReviewItem, 0, len(reviews))
	for _, review := range reviews {
		item := PendingReviewItem{Review: review}
		info, err := s.repo.GetBeatmapInfo(ctx, review.BID)
		switch {
		case err == nil:
			item.Info = &info
		case errors.Is(err, ports.ErrBeatmapInfoNotFound):
			// queue entry predates a successful metadata fetch
		default:
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
