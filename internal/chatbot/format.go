package chatbot

import (
	"fmt"
	"sort"
	"strings"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

func formatLength(seconds int) string {
	return fmt.Sprintf("%dm%ds", seconds/60, seconds%60)
}

func formatProbabilities(probs map[beatmap.Type]float64) string {
	if len(probs) == 0 {
		return "无详细概率数据"
	}
	type pair struct {
		typ  beatmap.Type
		prob float64
	}
	pairs := make([]pair, 0, len(probs))
	for typ, prob := range probs {
		pairs = append(pairs, pair{typ, prob})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].prob != pairs[j].prob {
			return pairs[i].prob > pairs[j].prob
		}
		return pairs[i].typ < pairs[j].typ
	})
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s: %.2f%%", capitalize(string(p.typ)), p.prob*100))
	}
	return strings.Join(parts, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func upperType(typ beatmap.Type) string {
	return strings.ToUpper(string(typ))
}

func formatMetadataLines(meta ports.BeatmapMetadata) []string {
	url := meta.URL
	if url == "" {
		url = fmt.Sprintf("https://osu.ppy.sh/b/%d", meta.BID)
	}
	return []string{
		fmt.Sprintf("谱面ID: %d (%s)", meta.BID, capitalize(meta.Status)),
		fmt.Sprintf("标题: %s - %s [%s]", meta.Artist, meta.Title, meta.DiffName),
		fmt.Sprintf("Mapper: %s", meta.CreatorName),
		fmt.Sprintf("BPM: %g | ★: %.2f | 时长: %s", meta.BPM, meta.StarRating, formatLength(meta.LengthSeconds)),
		fmt.Sprintf("CS: %g | AR: %g | OD: %g | HP: %g", meta.CS, meta.AR, meta.OD, meta.HP),
		url,
	}
}

// formatAdvisory turns a resolver advisory into the submitter-facing line.
func formatAdvisory(adv beatmap.Advisory) string {
	switch adv.Code {
	case beatmap.AdvisoryUserAsserted:
		return fmt.Sprintf("你已将这张图定为【%s】！", upperType(adv.UserType))
	case beatmap.AdvisoryTypeMismatch:
		return fmt.Sprintf("但模型分析认为此图更偏向【%s】！差异已记录", upperType(adv.ModelType))
	case beatmap.AdvisoryModelFailed:
		return "模型分析失败或未返回有效结果！"
	case beatmap.AdvisoryModelFailedProvisionalOthers:
		return "模型分析失败或未返回有效结果，谱面暂定为【OTHERS】！"
	case beatmap.AdvisoryManualLocked:
		return fmt.Sprintf("此谱面已被管理员定义为【%s】类型！\n记录了你的【%s】，但谱面库中分类不变",
			upperType(adv.CatalogType), upperType(adv.UserType))
	default:
		return ""
	}
}

func formatRecommendResult(result catalog.RecommendResult, probs map[beatmap.Type]float64, description string, success bool) string {
	parts := formatMetadataLines(result.Metadata)
	parts = append(parts,
		"",
		fmt.Sprintf("分析概率: %s", formatProbabilities(probs)),
		fmt.Sprintf("谱面库当前分类: 【%s】", upperType(result.CatalogType)),
		"",
		fmt.Sprintf("你的备注: %s", description),
	)
	for _, adv := range result.Advisories {
		if line := formatAdvisory(adv); line != "" {
			parts = append(parts, line)
		}
	}
	if success {
		parts = append(parts, "", "✔ 推荐已成功记录，谱面信息已更新！")
	} else {
		parts = append(parts, "", "✔ 推荐已记录")
	}
	return strings.Join(parts, "\n")
}

func formatCatalogEntry(entry ports.CatalogEntry, recs []ports.Recommendation) string {
	info := entry.Info
	parts := []string{
		fmt.Sprintf("谱面ID: %d (%s)", info.BID, capitalize(info.Status)),
		fmt.Sprintf("标题: %s - %s [%s]", info.Artist, info.Title, info.DiffName),
		fmt.Sprintf("Mapper: %s", info.CreatorName),
		fmt.Sprintf("BPM: %g | ★: %.2f | 时长: %s", info.BPM, info.StarRating, formatLength(info.LengthSeconds)),
		fmt.Sprintf("CS: %g | AR: %g | OD: %g | HP: %g", info.CS, info.AR, info.OD, info.HP),
		fmt.Sprintf("链接: https://osu.ppy.sh/b/%d", info.BID),
		fmt.Sprintf("谱面库分类: 【%s】", upperType(entry.DeterminedType)),
		fmt.Sprintf("分析概率: %s", formatProbabilities(entry.Probabilities)),
		"",
	}
	if len(recs) == 0 {
		parts = append(parts, "还没有人推过这张图呢！")
	}
	for _, rec := range recs {
		name := "一位热心玩家"
		if rec.SubmitterName != nil && *rec.SubmitterName != "" {
			name = *rec.SubmitterName
		}
		when := rec.CreatedAt.Format("2006年01月02日")
		base := fmt.Sprintf("%s 在%s推荐了这张图", name, when)
		if rec.Description == DefaultDescription || rec.Description == "" {
			parts = append(parts, base+"！")
		} else {
			parts = append(parts, fmt.Sprintf("%s：%s", base, rec.Description))
		}
	}
	return strings.Join(parts, "\n")
}

func formatOverview(overview catalog.Overview) string {
	parts := formatMetadataLines(overview.Metadata)
	if overview.Analysis != nil {
		parts = append(parts,
			"",
			fmt.Sprintf("谱面库分类: 【%s】", upperType(overview.Analysis.DeterminedType)),
			fmt.Sprintf("分析概率: %s", formatProbabilities(overview.Analysis.Probabilities)),
		)
	} else {
		parts = append(parts, "", "这张图还没有进入谱面库！")
	}
	if len(overview.Recommendations) > 0 {
		parts = append(parts, "")
		for _, rec := range overview.Recommendations {
			name := "一位热心玩家"
			if rec.SubmitterName != nil && *rec.SubmitterName != "" {
				name = *rec.SubmitterName
			}
			when := rec.CreatedAt.Format("2006年01月02日")
			base := fmt.Sprintf("%s 在%s推荐了这张图", name, when)
			if rec.Description == DefaultDescription || rec.Description == "" {
				parts = append(parts, base+"！")
			} else {
				parts = append(parts, fmt.Sprintf("%s：%s", base, rec.Description))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func formatPendingList(items []catalog.PendingReviewItem) string {
	if len(items) == 0 {
		return "太棒了！当前没有需要审核的谱面。"
	}
	parts := []string{fmt.Sprintf("最近 %d 条待审谱面：", len(items))}
	for _, item := range items {
		line := fmt.Sprintf("- BID: %d | 原因: %s | 时间: %s",
			item.Review.BID, item.Review.Reason, item.Review.EnqueuedAt.Format("2006-01-02 15:04"))
		if item.Info != nil {
			line += fmt.Sprintf(" | %s - %s", item.Info.Artist, item.Info.Title)
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

const helpMessage = `Kon! Bot
-------------------------------
/bid [谱面ID]
功能: 查询指定谱面的信息
例如: /bid 129891
-------------------------------
/konbind [你的osu!用户名]
功能: 绑定osu!账号
例如: /konbind YRScarlet
-------------------------------
/推荐 [类型] [谱面ID] [备注]
功能: 推荐一张你喜欢的图
类型: 串/stream, 跳/jump, 强双/alt, 科技/tech, 其他/others。若不指定，将由模型分析
谱面ID: 若不指定，则尝试获取你最近游玩的谱面
备注: 你对这张图的评价或说明
例如:
  /推荐 串 3946158 经典Oh壁厚
  /推荐 3197548 PP长跳图
  (还可用/rec，功能一致)
-------------------------------
/随机推图 [类型] [数量=N] [筛选条件...]
功能: 从谱面库中随机推荐谱面
数量=N: 默认1，最多5
筛选条件: 如 stars=6-6.5, ar>=9, od=8, length<180, bpm>170
例如:
  /随机推图 串 数量=3 stars=6.2-6.8 ar>=9.3
  (还可用/roll图，功能一致)`
