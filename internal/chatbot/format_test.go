package chatbot

import (
	"strings"
	"testing"
	"time"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

func TestRecommendSuccessLine(t *testing.T) {
	stream := beatmap.TypeStream
	cases := []struct {
		name     string
		userType *beatmap.Type
		result   catalog.RecommendResult
		want     bool
	}{
		{
			name:     "asserted type recorded",
			userType: &stream,
			result:   catalog.RecommendResult{RecommendationType: beatmap.TypeStream, CatalogType: beatmap.TypeStream},
			want:     true,
		},
		{
			name:     "asserted type on a locked row",
			userType: &stream,
			result:   catalog.RecommendResult{RecommendationType: beatmap.TypeStream, CatalogType: beatmap.TypeTech},
			want:     true,
		},
		{
			name:   "clear model verdict",
			result: catalog.RecommendResult{RecommendationType: beatmap.TypeJump, CatalogType: beatmap.TypeJump},
			want:   true,
		},
		{
			name: "model failed on a locked row",
			result: catalog.RecommendResult{
				RecommendationType: beatmap.TypeOthers,
				CatalogType:        beatmap.TypeTech,
			},
			want: false,
		},
		{
			name:   "ambiguous model",
			result: catalog.RecommendResult{RecommendationType: beatmap.TypeOthers, CatalogType: beatmap.TypeOthers},
			want:   false,
		},
	}
	for _, tc := range cases {
		if got := recommendSuccess(tc.userType, tc.result); got != tc.want {
			t.Fatalf("%s: recommendSuccess() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFormatRecommendResultMismatch(t *testing.T) {
	result := catalog.RecommendResult{
		Metadata: ports.BeatmapMetadata{
			BID: 100, Title: "Song", Artist: "Artist", CreatorName: "Mapper",
			DiffName: "Extra", StarRating: 6.1, Status: "ranked",
			BPM: 185, LengthSeconds: 200,
		},
		CatalogType: beatmap.TypeStream,
		ModelType:   beatmap.TypeJump,
		Advisories: []beatmap.Advisory{
			{Code: beatmap.AdvisoryUserAsserted, UserType: beatmap.TypeStream},
			{Code: beatmap.AdvisoryTypeMismatch, UserType: beatmap.TypeStream, ModelType: beatmap.TypeJump},
		},
	}
	probs := map[beatmap.Type]float64{beatmap.TypeJump: 0.9, beatmap.TypeStream: 0.05}

	text := formatRecommendResult(result, probs, "好图", true)
	for _, want := range []string{
		"谱面ID: 100 (Ranked)",
		"谱面库当前分类: 【STREAM】",
		"你已将这张图定为【STREAM】！",
		"更偏向【JUMP】！差异已记录",
		"你的备注: 好图",
		"✔ 推荐已成功记录",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("reply missing %q:\n%s", want, text)
		}
	}
	// Highest probability renders first.
	if strings.Index(text, "Jump: 90.00%") > strings.Index(text, "Stream: 5.00%") {
		t.Fatalf("probabilities not sorted descending:\n%s", text)
	}
}

func TestFormatCatalogEntryWithoutRecommendations(t *testing.T) {
	entry := ports.CatalogEntry{
		Info: ports.BeatmapInfo{
			BID: 55, Title: "Song", Artist: "Artist", Status: "ranked",
			StarRating: 5.5, LengthSeconds: 95,
		},
		DeterminedType: beatmap.TypeTech,
	}

	text := formatCatalogEntry(entry, nil)
	if !strings.Contains(text, "谱面库分类: 【TECH】") {
		t.Fatalf("missing classification line:\n%s", text)
	}
	if !strings.Contains(text, "还没有人推过这张图呢！") {
		t.Fatalf("missing empty-recommendation line:\n%s", text)
	}
	if !strings.Contains(text, "时长: 1m35s") {
		t.Fatalf("missing length rendering:\n%s", text)
	}
}

func TestFormatCatalogEntrySentinelDescription(t *testing.T) {
	name := "player"
	recs := []ports.Recommendation{
		{SubmitterName: &name, Description: DefaultDescription, CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{SubmitterName: &name, Description: "经典好图", CreatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	text := formatCatalogEntry(ports.CatalogEntry{DeterminedType: beatmap.TypeJump}, recs)
	if !strings.Contains(text, "player 在2026年05月01日推荐了这张图！") {
		t.Fatalf("sentinel description must render without the text:\n%s", text)
	}
	if !strings.Contains(text, "player 在2026年05月02日推荐了这张图：经典好图") {
		t.Fatalf("real description must render inline:\n%s", text)
	}
}

func TestFormatPendingListEmpty(t *testing.T) {
	if text := formatPendingList(nil); !strings.Contains(text, "当前没有需要审核的谱面") {
		t.Fatalf("empty list message = %q", text)
	}
}
