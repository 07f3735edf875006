package ports

import (
	"context"
	"errors"
	"time"

	"konbot/internal/domain/beatmap"
)

var (
	ErrAnalysisNotFound = errors.New("beatmap analysis not found")
	ErrBindingNotFound  = errors.New("user binding not found")
)

// BeatmapAnalysis is the catalog's authoritative classification row.
type BeatmapAnalysis struct {
	BID            int64
	DeterminedType beatmap.Type
	IsAutoTyped    bool
	Probabilities  map[beatmap.Type]float64
	LastModelRunAt *time.Time
	ReviewedBy     string
	ReviewedAt     *time.Time
}

// AnalysisOverwrite replaces an auto-typed row (or creates one), keeping
// is_auto_typed true.
type AnalysisOverwrite struct {
	BID            int64
	DeterminedType beatmap.Type
	Probabilities  map[beatmap.Type]float64
	ModelRanAt     *time.Time
}

type PendingReview struct {
	BID                         int64
	Reason                      beatmap.ReviewReason
	TriggeredByRecommendationID *int64
	EnqueuedAt                  time.Time
}

type PendingReviewUpsert struct {
	BID                         int64
	Reason                      beatmap.ReviewReason
	TriggeredByRecommendationID *int64
	EnqueuedAt                  time.Time
}

type Recommendation struct {
	RecommendationID  int64
	QQID              int64
	BID               int64
	SubmitterName     *string
	UserRequestedType *beatmap.Type
	ActualType        beatmap.Type
	Description       string
	CreatedAt         time.Time
}

type RecommendationCreate struct {
	QQID              int64
	BID               int64
	SubmitterName     *string
	UserRequestedType *beatmap.Type
	ActualType        beatmap.Type
	Description       string
	CreatedAt         time.Time
}

// BeatmapInfo is the locally snapshotted official metadata for a beatmap.
type BeatmapInfo struct {
	BID           int64
	Title         string
	Artist        string
	CreatorName   string
	CreatorID     int64
	DiffName      string
	StarRating    float64
	Status        string
	AR            float64
	OD            float64
	CS            float64
	HP            float64
	LengthSeconds int
	BPM           float64
	FetchedAt     time.Time
}

type UserBinding struct {
	QQID        int64
	OsuUID      int64
	OsuUsername string
	Nickname    string
	BoundAt     time.Time
}

// NumericFilter restricts a random catalog pick on one metadata field.
// Field is one of the keys accepted by the repository (ar, od, cs, hp,
// stars, length, bpm); Op is one of >=, <=, >, <, =. A non-nil High turns
// the filter into an inclusive range [Value, High].
type NumericFilter struct {
	Field string
	Op    string
	Value float64
	High  *float64
}

// RandomQuery selects up to Count random catalog entries matching the
// optional type and numeric filters.
type RandomQuery struct {
	Type    *beatmap.Type
	Filters []NumericFilter
	Count   int
}

// CatalogEntry joins a metadata snapshot with its analysis row.
type CatalogEntry struct {
	Info           BeatmapInfo
	DeterminedType beatmap.Type
	Probabilities  map[beatmap.Type]float64
}

var ErrBeatmapInfoNotFound = errors.New("beatmap info not found")

type CatalogReadRepository interface {
	GetAnalysis(ctx context.Context, bid int64) (BeatmapAnalysis, error)
	GetBeatmapInfo(ctx context.Context, bid int64) (BeatmapInfo, error)
	ListPendingReviews(ctx context.Context, limit int) ([]PendingReview, error)
	SampleRecommendations(ctx context.Context, bid int64, limit int) ([]Recommendation, error)
	RandomCatalogPicks(ctx context.Context, query RandomQuery) ([]CatalogEntry, error)
	GetBinding(ctx context.Context, qqid int64) (UserBinding, error)
	FindBindingByOsuUID(ctx context.Context, osuUID int64) (UserBinding, error)
}

type CatalogRepository interface {
	CatalogReadRepository

	// OverwriteAnalysis applies an insert-or-update keyed by bid, setting
	// determined_type and is_auto_typed=true unconditionally. Callers decide
	// inside a transaction whether the row may be overwritten.
	OverwriteAnalysis(ctx context.Context, input AnalysisOverwrite) error
	// RefreshAnalysisProbabilities updates probabilities and the model run
	// timestamp only where the row is manually classified, leaving
	// determined_type and is_auto_typed untouched.
	RefreshAnalysisProbabilities(ctx context.Context, bid int64, probs map[beatmap.Type]float64, ranAt time.Time) error
	// SetManualClassification is the administrator check-and-set: it updates
	// determined_type, flips is_auto_typed to false and records the reviewer,
	// reporting whether a row existed.
	SetManualClassification(ctx context.Context, bid int64, newType beatmap.Type, reviewedBy string, reviewedAt time.Time) (bool, error)

	UpsertPendingReview(ctx context.Context, input PendingReviewUpsert) error
	DeletePendingReview(ctx context.Context, bid int64) error

	CreateRecommendation(ctx context.Context, input RecommendationCreate) (int64, error)

	UpsertBeatmapInfo(ctx context.Context, info BeatmapInfo) error

	CreateBinding(ctx context.Context, binding UserBinding) error
	DeleteBinding(ctx context.Context, qqid int64) (bool, error)
}
