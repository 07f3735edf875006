package ports

import (
	"context"
	"errors"
)

var (
	ErrBeatmapNotFound = errors.New("beatmap not found upstream")
	ErrOsuUserNotFound = errors.New("osu user not found")
	ErrNoRecentPlay    = errors.New("no recent play found")
)

// BeatmapMetadata is what the official API returns for one difficulty.
type BeatmapMetadata struct {
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
	URL           string
	CoverURL      string
}

type OsuUser struct {
	UID      int64
	Username string
}

// BeatmapProvider is the official metadata API.
type BeatmapProvider interface {
	FetchBeatmap(ctx context.Context, bid int64) (BeatmapMetadata, error)
	LookupUser(ctx context.Context, username string) (OsuUser, error)
	// RecentBeatmapID returns the beatmap id of the user's most recent play,
	// failed attempts included.
	RecentBeatmapID(ctx context.Context, osuUID int64) (int64, error)
}

// Classifier is the probabilistic model service. The returned label set is
// not guaranteed to match the canonical types; callers normalize it.
type Classifier interface {
	Classify(ctx context.Context, bid int64) (map[string]float64, error)
}
