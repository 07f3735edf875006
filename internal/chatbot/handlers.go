package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/chatbot/onebot"
	"konbot/internal/domain/beatmap"
	"konbot/internal/errs"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

func (b *Bot) handleRecommend(ctx context.Context, reply func(string), event onebot.Event, argText string) {
	qqid := event.UserID

	if _, err := b.svc.Binding(ctx, qqid); err != nil {
		if errors.Is(err, ports.ErrBindingNotFound) {
			reply("请先使用 /konbind [你的osu!用户名] 绑定账号！")
			return
		}
		b.replyInternalError(ctx, reply, err)
		return
	}

	args := ParseRecommendArgs(argText, b.svc.Aliases())
	bid := args.BID
	if bid == 0 {
		reply("你没有提供谱面ID，正在尝试获取你最近游玩的谱面...")
		recent, err := b.svc.RecentBeatmapID(ctx, qqid)
		if err != nil {
			if errors.Is(err, ports.ErrNoRecentPlay) {
				reply("没有找到你最近游玩的谱面！")
			} else {
				b.replyInternalError(ctx, reply, err)
			}
			return
		}
		bid = recent
	}

	result, err := b.svc.Recommend(ctx, catalog.RecommendInput{
		QQID:          qqid,
		BID:           bid,
		SubmitterName: event.SenderName(),
		UserType:      args.UserType,
		Description:   args.Description,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrMetadataUnavailable) {
			reply(fmt.Sprintf("未能查询到谱面ID: %d 的官方信息！请检查ID是否正确", bid))
			return
		}
		b.replyInternalError(ctx, reply, err)
		return
	}

	probs := analysisProbs(ctx, b.svc, bid)
	reply(formatRecommendResult(result, probs, args.Description, recommendSuccess(args.UserType, result)))
}

// recommendSuccess picks the reply's closing line: the "updated" variant
// needs either an asserted type that stuck, or a clear non-others model
// verdict.
func recommendSuccess(userType *beatmap.Type, result catalog.RecommendResult) bool {
	if userType != nil {
		return *userType == result.RecommendationType
	}
	return result.RecommendationType != beatmap.TypeOthers
}

// analysisProbs reloads the freshly written probabilities for display. A
// read failure degrades to an empty map; the submission already succeeded.
func analysisProbs(ctx context.Context, svc *catalog.Service, bid int64) map[beatmap.Type]float64 {
	analysis, err := svc.Analysis(ctx, bid)
	if err != nil {
		return nil
	}
	return analysis.Probabilities
}

func (b *Bot) handleRandom(ctx context.Context, reply func(string), event onebot.Event, argText string) {
	query := ParseRandomArgs(argText, b.svc.Aliases())

	entries, err := b.svc.RandomPicks(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrNoCatalogMatch) {
			reply("没有找到符合你条件的谱面！尝试放宽一点筛选条件吧")
			return
		}
		b.replyInternalError(ctx, reply, err)
		return
	}

	sections := make([]string, 0, len(entries))
	for _, entry := range entries {
		recs, err := b.svc.RecommendationSample(ctx, entry.Info.BID)
		if err != nil {
			logging.Warn(ctx, "load recommendation sample failed",
				slog.Int64("bid", entry.Info.BID),
				slog.Any("error", errs.Loggable(err)))
		}
		sections = append(sections, formatCatalogEntry(entry, recs))
	}
	reply(strings.Join(sections, "\n\n——————————\n\n"))
}

func (b *Bot) handleBind(ctx context.Context, reply func(string), event onebot.Event, argText string) {
	username := strings.TrimSpace(argText)
	if username == "" {
		reply("请输入你要绑定的 osu! 用户名。\n使用方法: /konbind [osu!用户名]")
		return
	}

	binding, err := b.svc.BindUser(ctx, event.UserID, username)
	switch {
	case err == nil:
		reply(fmt.Sprintf("绑定成功！\nosu! 用户名: %s\nosu! UID: %d", binding.OsuUsername, binding.OsuUID))
	case errors.Is(err, catalog.ErrAlreadyBound):
		reply("你已经绑定过 osu! 账号了！如需更换请先 /konunbind 解绑。")
	case errors.Is(err, catalog.ErrOsuAccountTaken):
		reply(fmt.Sprintf("osu! 账号 [%s] 已被其他人绑定！", username))
	case errors.Is(err, ports.ErrOsuUserNotFound):
		reply(fmt.Sprintf("未能找到 osu! 用户 [%s] 或查询API时出错，请检查用户名是否正确。", username))
	default:
		b.replyInternalError(ctx, reply, err)
	}
}

func (b *Bot) handleUnbind(ctx context.Context, reply func(string), event onebot.Event, _ string) {
	err := b.svc.UnbindUser(ctx, event.UserID)
	switch {
	case err == nil:
		reply("解绑成功！")
	case errors.Is(err, ports.ErrBindingNotFound):
		reply("你还没有绑定任何 osu! 账号！")
	default:
		b.replyInternalError(ctx, reply, err)
	}
}

func (b *Bot) handleBeatmapInfo(ctx context.Context, reply func(string), event onebot.Event, argText string) {
	bid, err := strconv.ParseInt(strings.TrimSpace(argText), 10, 64)
	if err != nil || bid <= 0 {
		reply("请提供正确的谱面ID！\n使用方法: /bid [谱面ID]")
		return
	}

	overview, err := b.svc.BeatmapOverview(ctx, bid)
	if err != nil {
		if errors.Is(err, ports.ErrBeatmapNotFound) {
			reply(fmt.Sprintf("未能查询到谱面ID: %d 的官方信息！请检查ID是否正确", bid))
			return
		}
		b.replyInternalError(ctx, reply, err)
		return
	}
	reply(formatOverview(overview))
}

func (b *Bot) handlePending(ctx context.Context, reply func(string), event onebot.Event, argText string) {
	if !b.isSuperuser(event.UserID) {
		return
	}

	args := strings.Fields(argText)
	if len(args) == 0 {
		reply("请提供操作指令！\n用法:\n  /pending list [数量]\n  /pending [谱面ID] [新类型]")
		return
	}

	if strings.EqualFold(args[0], "list") {
		count := 5
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				count = n
			}
		}
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		items, err := b.svc.PendingReviews(ctx, count)
		if err != nil {
			b.replyInternalError(ctx, reply, err)
			return
		}
		reply(formatPendingList(items))
		return
	}

	if len(args) != 2 {
		reply("无效的 pending 命令格式。\n用法:\n  /pending list [数量]\n  /pending [谱面ID] [新类型]")
		return
	}

	bid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || bid <= 0 {
		reply("谱面ID必须是数字！请检查输入。")
		return
	}
	newType, err := b.svc.Aliases().ParseType(args[1])
	if err != nil {
		reply(fmt.Sprintf("无效的新类型: %s，可用: 串/stream, 跳/jump, 强双/alt, 科技/tech, 其他/others", args[1]))
		return
	}

	err = b.svc.Override(ctx, catalog.OverrideInput{
		BID:      bid,
		NewType:  newType,
		Reviewer: strconv.FormatInt(event.UserID, 10),
	})
	switch {
	case err == nil:
		reply(fmt.Sprintf("谱面 %d 已成功处理！\n新类型设置为: 【%s】\n已标记为人工审核，并从待审列表中移除。", bid, upperType(newType)))
	case errors.Is(err, ports.ErrAnalysisNotFound):
		reply(fmt.Sprintf("错误：谱面ID %d 在谱面分析库中未找到记录！", bid))
	default:
		b.replyInternalError(ctx, reply, err)
	}
}

func (b *Bot) handleHelp(_ context.Context, reply func(string), _ onebot.Event, _ string) {
	reply(helpMessage)
}

func (b *Bot) replyInternalError(ctx context.Context, reply func(string), err error) {
	logging.Error(ctx, "command failed", slog.Any("error", errs.Loggable(err)))
	reply("处理命令时发生内部错误，请稍后再试或联系管理员！")
}
