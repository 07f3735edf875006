package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"konbot/internal/domain/beatmap"
	"konbot/internal/errs"
	"konbot/internal/infrastructure/persistence/sqlite/model"
	"konbot/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// wrapDB tags store failures so the command layer can map them to a
// persistence failure without inspecting driver errors.
func wrapDB(err error, msg string) error {
	return errs.WithKind(errs.Wrap(err, msg), errs.KindPersistence)
}

func (r *CatalogRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *CatalogRepository) GetAnalysis(ctx context.Context, bid int64) (ports.BeatmapAnalysis, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.BeatmapAnalysis{}, err
	}

	var row model.BeatmapAnalysis
	if err := db.Where("bid = ?", bid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BeatmapAnalysis{}, ports.ErrAnalysisNotFound
		}
		return ports.BeatmapAnalysis{}, wrapDB(err, "query beatmap analysis")
	}
	return mapAnalysis(row), nil
}

func (r *CatalogRepository) OverwriteAnalysis(ctx context.Context, input ports.AnalysisOverwrite) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	stream, jump, alt, tech := probColumns(input.Probabilities)
	row := model.BeatmapAnalysis{
		BID:            input.BID,
		DeterminedType: string(input.DeterminedType),
		IsAutoTyped:    true,
		StreamProb:     stream,
		JumpProb:       jump,
		AltProb:        alt,
		TechProb:       tech,
		LastModelRunAt: input.ModelRanAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"determined_type", "is_auto_typed",
			"stream_prob", "jump_prob", "alt_prob", "tech_prob",
			"last_model_run_at",
		}),
	}).Create(&row).Error; err != nil {
		return wrapDB(err, "upsert beatmap analysis")
	}
	return nil
}

func (r *CatalogRepository) RefreshAnalysisProbabilities(ctx context.Context, bid int64, probs map[beatmap.Type]float64, ranAt time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	stream, jump, alt, tech := probColumns(probs)
	if err := db.Model(&model.BeatmapAnalysis{}).
		Where("bid = ? AND is_auto_typed = ?", bid, false).
		Updates(map[string]any{
			"stream_prob":       stream,
			"jump_prob":         jump,
			"alt_prob":          alt,
			"tech_prob":         tech,
			"last_model_run_at": ranAt,
		}).Error; err != nil {
		return wrapDB(err, "refresh analysis probabilities")
	}
	return nil
}

func (r *CatalogRepository) SetManualClassification(ctx context.Context, bid int64, newType beatmap.Type, reviewedBy string, reviewedAt time.Time) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.BeatmapAnalysis{}).
		Where("bid = ?", bid).
		Updates(map[string]any{
			"determined_type": string(newType),
			"is_auto_typed":   false,
			"reviewed_by":     reviewedBy,
			"reviewed_at":     reviewedAt,
		})
	if result.Error != nil {
		return false, wrapDB(result.Error, "set manual classification")
	}
	return result.RowsAffected > 0, nil
}

func (r *CatalogRepository) UpsertPendingReview(ctx context.Context, input ports.PendingReviewUpsert) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.PendingReview{
		BID:                         input.BID,
		Reason:                      string(input.Reason),
		TriggeredByRecommendationID: input.TriggeredByRecommendationID,
		EnqueuedAt:                  input.EnqueuedAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reason", "triggered_by_recommendation_id", "enqueued_at",
		}),
	}).Create(&row).Error; err != nil {
		return wrapDB(err, "upsert pending review")
	}
	return nil
}

func (r *CatalogRepository) DeletePendingReview(ctx context.Context, bid int64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("bid = ?", bid).Delete(&model.PendingReview{}).Error; err != nil {
		return wrapDB(err, "delete pending review")
	}
	return nil
}

func (r *CatalogRepository) ListPendingReviews(ctx context.Context, limit int) ([]ports.PendingReview, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.PendingReview{}).Order("enqueued_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.PendingReview
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapDB(err, "query pending reviews")
	}

	items := make([]ports.PendingReview, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.PendingReview{
			BID:                         row.BID,
			Reason:                      beatmap.ReviewReason(row.Reason),
			TriggeredByRecommendationID: row.TriggeredByRecommendationID,
			EnqueuedAt:                  row.EnqueuedAt,
		})
	}
	return items, nil
}

func (r *CatalogRepository) CreateRecommendation(ctx context.Context, input ports.RecommendationCreate) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.Recommendation{
		QQID:          input.QQID,
		BID:           input.BID,
		SubmitterName: input.SubmitterName,
		ActualType:    string(input.ActualType),
		Description:   input.Description,
		CreatedAt:     input.CreatedAt,
	}
	if input.UserRequestedType != nil {
		requested := string(*input.UserRequestedType)
		row.UserRequestedType = &requested
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, wrapDB(err, "insert recommendation")
	}
	return row.RecommendationID, nil
}

func (r *CatalogRepository) SampleRecommendations(ctx context.Context, bid int64, limit int) ([]ports.Recommendation, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Recommendation{}).Where("bid = ?", bid).Order("RANDOM()")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Recommendation
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapDB(err, "sample recommendations")
	}

	items := make([]ports.Recommendation, 0, len(rows))
	for _, row := range rows {
		item := ports.Recommendation{
			RecommendationID: row.RecommendationID,
			QQID:             row.QQID,
			BID:              row.BID,
			SubmitterName:    row.SubmitterName,
			ActualType:       beatmap.Type(row.ActualType),
			Description:      row.Description,
			CreatedAt:        row.CreatedAt,
		}
		if row.UserRequestedType != nil {
			requested := beatmap.Type(*row.UserRequestedType)
			item.UserRequestedType = &requested
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *CatalogRepository) GetBeatmapInfo(ctx context.Context, bid int64) (ports.BeatmapInfo, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.BeatmapInfo{}, err
	}

	var row model.BeatmapInfo
	if err := db.First(&row, "bid = ?", bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BeatmapInfo{}, ports.ErrBeatmapInfoNotFound
		}
		return ports.BeatmapInfo{}, errs.WithKind(errs.Wrapf(err, "load beatmap info %d", bid), errs.KindPersistence)
	}
	return mapBeatmapInfo(row), nil
}

func mapBeatmapInfo(row model.BeatmapInfo) ports.BeatmapInfo {
	return ports.BeatmapInfo{
		BID:           row.BID,
		Title:         row.Title,
		Artist:        row.Artist,
		CreatorName:   row.CreatorName,
		CreatorID:     row.CreatorID,
		DiffName:      row.DiffName,
		StarRating:    row.StarRating,
		Status:        row.Status,
		AR:            row.AR,
		OD:            row.OD,
		CS:            row.CS,
		HP:            row.HP,
		LengthSeconds: row.LengthSeconds,
		BPM:           row.BPM,
		FetchedAt:     row.FetchedAt,
	}
}

func (r *CatalogRepository) UpsertBeatmapInfo(ctx context.Context, info ports.BeatmapInfo) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.BeatmapInfo{
		BID:           info.BID,
		Title:         info.Title,
		Artist:        info.Artist,
		CreatorName:   info.CreatorName,
		CreatorID:     info.CreatorID,
		DiffName:      info.DiffName,
		StarRating:    info.StarRating,
		Status:        info.Status,
		AR:            info.AR,
		OD:            info.OD,
		CS:            info.CS,
		HP:            info.HP,
		LengthSeconds: info.LengthSeconds,
		BPM:           info.BPM,
		FetchedAt:     info.FetchedAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "artist", "creator_name", "creator_id", "diff_name",
			"star_rating", "status", "ar", "od", "cs", "hp",
			"length_seconds", "bpm", "fetched_at",
		}),
	}).Create(&row).Error; err != nil {
		return wrapDB(err, "upsert beatmap info")
	}
	return nil
}

// randomPickColumns maps the public filter field names onto beatmap_infos
// columns. Anything outside this map is rejected before it reaches SQL.
var randomPickColumns = map[string]string{
	"ar":     "ar",
	"od":     "od",
	"cs":     "cs",
	"hp":     "hp",
	"stars":  "star_rating",
	"length": "length_seconds",
	"bpm":    "bpm",
}

var randomPickOps = map[string]struct{}{
	">=": {}, "<=": {}, ">": {}, "<": {}, "=": {},
}

type catalogEntryRow struct {
	model.BeatmapInfo
	DeterminedType string   `gorm:"column:determined_type"`
	StreamProb     *float64 `gorm:"column:stream_prob"`
	JumpProb       *float64 `gorm:"column:jump_prob"`
	AltProb        *float64 `gorm:"column:alt_prob"`
	TechProb       *float64 `gorm:"column:tech_prob"`
}

func (r *CatalogRepository) RandomCatalogPicks(ctx context.Context, query ports.RandomQuery) ([]ports.CatalogEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	count := query.Count
	if count <= 0 {
		count = 1
	}

	q := db.Table("beatmap_infos").
		Select("beatmap_infos.*, beatmap_analyses.determined_type, beatmap_analyses.stream_prob, beatmap_analyses.jump_prob, beatmap_analyses.alt_prob, beatmap_analyses.tech_prob").
		Joins("JOIN beatmap_analyses ON beatmap_analyses.bid = beatmap_infos.bid")

	if query.Type != nil {
		q = q.Where("beatmap_analyses.determined_type = ?", string(*query.Type))
	}

	for _, filter := range query.Filters {
		column, ok := randomPickColumns[filter.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported filter field %q", filter.Field)
		}
		if filter.High != nil {
			q = q.Where(fmt.Sprintf("beatmap_infos.%s >= ? AND beatmap_infos.%s <= ?", column, column), filter.Value, *filter.High)
			continue
		}
		if _, ok := randomPickOps[filter.Op]; !ok {
			return nil, fmt.Errorf("unsupported filter operator %q", filter.Op)
		}
		q = q.Where(fmt.Sprintf("beatmap_infos.%s %s ?", column, filter.Op), filter.Value)
	}

	var rows []catalogEntryRow
	if err := q.Order("RANDOM()").Limit(count).Find(&rows).Error; err != nil {
		return nil, wrapDB(err, "query random catalog picks")
	}

	items := make([]ports.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CatalogEntry{
			Info:           mapBeatmapInfo(row.BeatmapInfo),
			DeterminedType: beatmap.Type(row.DeterminedType),
			Probabilities:  probsFromColumns(row.StreamProb, row.JumpProb, row.AltProb, row.TechProb),
		})
	}
	return items, nil
}

func (r *CatalogRepository) GetBinding(ctx context.Context, qqid int64) (ports.UserBinding, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.UserBinding{}, err
	}

	var row model.UserBinding
	if err := db.Where("qqid = ?", qqid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserBinding{}, ports.ErrBindingNotFound
		}
		return ports.UserBinding{}, wrapDB(err, "query user binding")
	}
	return mapBinding(row), nil
}

func (r *CatalogRepository) FindBindingByOsuUID(ctx context.Context, osuUID int64) (ports.UserBinding, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.UserBinding{}, err
	}

	var row model.UserBinding
	if err := db.Where("osu_uid = ?", osuUID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserBinding{}, ports.ErrBindingNotFound
		}
		return ports.UserBinding{}, wrapDB(err, "query binding by osu uid")
	}
	return mapBinding(row), nil
}

func (r *CatalogRepository) CreateBinding(ctx context.Context, binding ports.UserBinding) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.UserBinding{
		QQID:        binding.QQID,
		OsuUID:      binding.OsuUID,
		OsuUsername: binding.OsuUsername,
		Nickname:    binding.Nickname,
		BoundAt:     binding.BoundAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return wrapDB(err, "insert user binding")
	}
	return nil
}

func (r *CatalogRepository) DeleteBinding(ctx context.Context, qqid int64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Where("qqid = ?", qqid).Delete(&model.UserBinding{})
	if result.Error != nil {
		return false, wrapDB(result.Error, "delete user binding")
	}
	return result.RowsAffected > 0, nil
}

func probColumns(probs map[beatmap.Type]float64) (stream, jump, alt, tech *float64) {
	pick := func(typ beatmap.Type) *float64 {
		if value, ok := probs[typ]; ok {
			return &value
		}
		return nil
	}
	return pick(beatmap.TypeStream), pick(beatmap.TypeJump), pick(beatmap.TypeAlt), pick(beatmap.TypeTech)
}

func probsFromColumns(stream, jump, alt, tech *float64) map[beatmap.Type]float64 {
	probs := make(map[beatmap.Type]float64, 4)
	set := func(typ beatmap.Type, value *float64) {
		if value != nil {
			probs[typ] = *value
		}
	}
	set(beatmap.TypeStream, stream)
	set(beatmap.TypeJump, jump)
	set(beatmap.TypeAlt, alt)
	set(beatmap.TypeTech, tech)
	return probs
}

func mapAnalysis(row model.BeatmapAnalysis) ports.BeatmapAnalysis {
	return ports.BeatmapAnalysis{
		BID:            row.BID,
		DeterminedType: beatmap.Type(row.DeterminedType),
		IsAutoTyped:    row.IsAutoTyped,
		Probabilities:  probsFromColumns(row.StreamProb, row.JumpProb, row.AltProb, row.TechProb),
		LastModelRunAt: row.LastModelRunAt,
		ReviewedBy:     row.ReviewedBy,
		ReviewedAt:     row.ReviewedAt,
	}
}

func mapBinding(row model.UserBinding) ports.UserBinding {
	return ports.UserBinding{
		QQID:        row.QQID,
		OsuUID:      row.OsuUID,
		OsuUsername: row.OsuUsername,
		Nickname:    row.Nickname,
		BoundAt:     row.BoundAt,
	}
}
