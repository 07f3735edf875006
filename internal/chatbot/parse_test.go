package chatbot

import (
	"testing"

	"konbot/internal/domain/beatmap"
)

func TestParseRecommendArgsFull(t *testing.T) {
	aliases := beatmap.DefaultAliases()

	args := ParseRecommendArgs("串 3946158 经典Oh壁厚", aliases)
	if args.UserType == nil || *args.UserType != beatmap.TypeStream {
		t.Fatalf("user type = %v, want stream", args.UserType)
	}
	if args.BID != 3946158 {
		t.Fatalf("bid = %d, want 3946158", args.BID)
	}
	if args.Description != "经典Oh壁厚" {
		t.Fatalf("description = %q", args.Description)
	}
}

func TestParseRecommendArgsOrderIndependent(t *testing.T) {
	aliases := beatmap.DefaultAliases()

	args := ParseRecommendArgs("3197548 PP长跳图 跳", aliases)
	if args.UserType == nil || *args.UserType != beatmap.TypeJump {
		t.Fatalf("user type = %v, want jump", args.UserType)
	}
	if args.BID != 3197548 {
		t.Fatalf("bid = %d", args.BID)
	}
	if args.Description != "PP长跳图" {
		t.Fatalf("description = %q", args.Description)
	}
}

func TestParseRecommendArgsDefaultsDescription(t *testing.T) {
	args := ParseRecommendArgs("tech 100", beatmap.DefaultAliases())
	if args.Description != DefaultDescription {
		t.Fatalf("description = %q, want sentinel", args.Description)
	}
}

func TestParseRecommendArgsDescriptionOnly(t *testing.T) {
	args := ParseRecommendArgs("草泥马左手按断了", beatmap.DefaultAliases())
	if args.UserType != nil || args.BID != 0 {
		t.Fatalf("args = %#v, want description only", args)
	}
	if args.Description != "草泥马左手按断了" {
		t.Fatalf("description = %q", args.Description)
	}
}

func TestParseRecommendArgsFirstIntegerWins(t *testing.T) {
	args := ParseRecommendArgs("100 200", beatmap.DefaultAliases())
	if args.BID != 100 {
		t.Fatalf("bid = %d, want first integer", args.BID)
	}
	if args.Description != "200" {
		t.Fatalf("description = %q, want remaining token", args.Description)
	}
}

func TestParseRandomArgsGrammar(t *testing.T) {
	aliases := beatmap.DefaultAliases()

	query := ParseRandomArgs("串 数量=3 stars=6.2-6.8 ar>=9.3", aliases)
	if query.Type == nil || *query.Type != beatmap.TypeStream {
		t.Fatalf("type = %v, want stream", query.Type)
	}
	if query.Count != 3 {
		t.Fatalf("count = %d, want 3", query.Count)
	}
	if len(query.Filters) != 2 {
		t.Fatalf("filters = %#v, want 2", query.Filters)
	}

	starsFilter := query.Filters[0]
	if starsFilter.Field != "stars" || starsFilter.Value != 6.2 || starsFilter.High == nil || *starsFilter.High != 6.8 {
		t.Fatalf("stars filter = %#v", starsFilter)
	}
	arFilter := query.Filters[1]
	if arFilter.Field != "ar" || arFilter.Op != ">=" || arFilter.Value != 9.3 {
		t.Fatalf("ar filter = %#v", arFilter)
	}
}

func TestParseRandomArgsLengthMinutes(t *testing.T) {
	query := ParseRandomArgs("length<3m", beatmap.DefaultAliases())
	if len(query.Filters) != 1 {
		t.Fatalf("filters = %#v", query.Filters)
	}
	if query.Filters[0].Op != "<" || query.Filters[0].Value != 180 {
		t.Fatalf("length filter = %#v, want < 180 seconds", query.Filters[0])
	}
}

func TestParseRandomArgsSkipsGarbage(t *testing.T) {
	query := ParseRandomArgs("notafield>=5 stars=6", beatmap.DefaultAliases())
	if len(query.Filters) != 1 || query.Filters[0].Field != "stars" {
		t.Fatalf("filters = %#v, want only stars", query.Filters)
	}
}

func TestParseRandomArgsEmpty(t *testing.T) {
	query := ParseRandomArgs("", beatmap.DefaultAliases())
	if query.Type != nil || query.Count != 1 || len(query.Filters) != 0 {
		t.Fatalf("query = %#v, want bare defaults", query)
	}
}

func TestMatchCommandLongestWins(t *testing.T) {
	bot := NewBot(nil, nil)

	name, argText, ok := bot.matchCommand("/随机推图 串 数量=2")
	if !ok || name != "随机推图" {
		t.Fatalf("matchCommand() = %q ok=%v, want 随机推图", name, ok)
	}
	if argText != "串 数量=2" {
		t.Fatalf("argText = %q", argText)
	}
}

func TestMatchCommandRequiresPrefix(t *testing.T) {
	bot := NewBot(nil, nil)

	if _, _, ok := bot.matchCommand("推图 100"); ok {
		t.Fatalf("matchCommand() matched without prefix")
	}
	if _, _, ok := bot.matchCommand("/不存在的命令"); ok {
		t.Fatalf("matchCommand() matched unknown command")
	}
}

func TestMatchCommandFullWidthPrefix(t *testing.T) {
	bot := NewBot(nil, nil)

	name, _, ok := bot.matchCommand("！rec 100")
	if !ok || name != "rec" {
		t.Fatalf("matchCommand() = %q ok=%v, want rec", name, ok)
	}
}
