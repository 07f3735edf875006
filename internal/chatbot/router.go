// Package chatbot adapts chat commands onto the catalog services over a
// OneBot v11 websocket connection.
package chatbot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/chatbot/onebot"
	"konbot/internal/errs"
	"konbot/internal/usecase/catalog"
)

// commandPrefixes are the leaders a command line may start with.
var commandPrefixes = []string{"/", "！", "!"}

type commandHandler func(ctx context.Context, reply func(string), event onebot.Event, argText string)

// Bot routes incoming message events to command handlers. Each command runs
// on its own goroutine with a request id on the logging context.
type Bot struct {
	svc        *catalog.Service
	superusers map[int64]struct{}
	commands   map[string]commandHandler
}

func NewBot(svc *catalog.Service, superusers []int64) *Bot {
	bot := &Bot{
		svc:        svc,
		superusers: make(map[int64]struct{}, len(superusers)),
		commands:   make(map[string]commandHandler),
	}
	for _, id := range superusers {
		bot.superusers[id] = struct{}{}
	}
	bot.registerCommands()
	return bot
}

func (b *Bot) registerCommands() {
	register := func(handler commandHandler, names ...string) {
		for _, name := range names {
			b.commands[name] = handler
		}
	}
	register(b.handleRecommend, "推图", "推荐图", "推荐", "rec")
	register(b.handleRandom, "随机推图", "roll图", "抽图", "随机谱面", "随机推荐", "suiji", "随机")
	register(b.handleBind, "konbind", "绑定osu", "osu绑定")
	register(b.handleUnbind, "konunbind", "解绑osu", "osu解绑")
	register(b.handleBeatmapInfo, "bid", "谱面信息", "查询谱面")
	register(b.handlePending, "pending", "待审", "审核")
	register(b.handleHelp, "konhelp", "帮助", "菜单", "help")
}

// HandleEvent is the onebot.Handler entry point.
func (b *Bot) HandleEvent(ctx context.Context, client *onebot.Client, event onebot.Event) {
	name, argText, ok := b.matchCommand(event.RawMessage)
	if !ok {
		return
	}
	handler := b.commands[name]

	ctx = logging.WithAttrs(ctx,
		slog.String("request_id", uuid.NewString()),
		slog.String("command", name),
		slog.Int64("qqid", event.UserID))

	reply := func(text string) {
		if err := client.Reply(ctx, event, text); err != nil {
			logging.Error(ctx, "send reply failed", slog.Any("error", errs.Loggable(err)))
		}
	}

	logging.Info(ctx, "command received")
	handler(ctx, reply, event, argText)
}

// matchCommand strips the prefix and finds the longest registered command
// name the message starts with, so "随机推图" never routes to "随机".
func (b *Bot) matchCommand(raw string) (name, argText string, ok bool) {
	text := strings.TrimSpace(raw)
	stripped := ""
	for _, prefix := range commandPrefixes {
		if rest, found := strings.CutPrefix(text, prefix); found {
			stripped = rest
			break
		}
	}
	if stripped == "" {
		return "", "", false
	}

	best := ""
	for candidate := range b.commands {
		if strings.HasPrefix(stripped, candidate) && len(candidate) > len(best) {
			best = candidate
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, strings.TrimSpace(stripped[len(best):]), true
}

func (b *Bot) isSuperuser(qqid int64) bool {
	_, ok := b.superusers[qqid]
	return ok
}
