// Package reviewconsole is the administrator TUI for working through the
// pending-review queue.
package reviewconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/domain/beatmap"
	"konbot/internal/usecase/catalog"
)

const (
	maxShownRecommendations = 4
	maxAuditLines           = 8
	queuePageSize           = 20
)

type ReviewOptions struct {
	Reviewer        string
	RefreshInterval time.Duration
}

type reviewModel struct {
	ctx             context.Context
	service         *catalog.Service
	reviewer        string
	refreshInterval time.Duration

	items         []catalog.PendingReviewItem
	selectedIndex int
	detail        catalog.Overview
	hasDetail     bool
	status        string
	auditLogs     []string
}

type queueLoadedMsg struct {
	items []catalog.PendingReviewItem
	err   error
}

type detailLoadedMsg struct {
	bid       int64
	detail    catalog.Overview
	hasDetail bool
	err       error
}

type tickMsg struct{}

type overrideDoneMsg struct {
	bid     int64
	newType beatmap.Type
	err     error
}

func NewReviewModel(ctx context.Context, service *catalog.Service, options ReviewOptions) tea.Model {
	reviewer := strings.TrimSpace(options.Reviewer)
	if reviewer == "" {
		reviewer = "console"
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &reviewModel{
		ctx:             ctx,
		service:         service,
		reviewer:        reviewer,
		refreshInterval: interval,
		status:          "初始化中",
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return tea.Batch(m.loadQueueCmd(), m.tickCmd())
}

func (m *reviewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadQueueCmd(), m.tickCmd())
	case queueLoadedMsg:
		if msg.err != nil {
			m.status = "刷新失败: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		if len(m.items) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "队列为空"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.items) {
			m.selectedIndex = len(m.items) - 1
		}
		m.status = fmt.Sprintf("已刷新，共 %d 条", len(m.items))
		return m, m.loadSelectedDetailCmd()
	case detailLoadedMsg:
		if !m.isCurrentSelected(msg.bid) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "详情加载失败: " + msg.err.Error()
			return m, nil
		}
		m.hasDetail = msg.hasDetail
		m.detail = msg.detail
		return m, nil
	case overrideDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("override 失败: %v", msg.err)
			m.appendAuditLog(msg.bid, msg.newType, msg.err)
		} else {
			m.status = fmt.Sprintf("谱面 %d 已定为 %s", msg.bid, msg.newType)
			m.appendAuditLog(msg.bid, msg.newType, nil)
		}
		return m, m.loadQueueCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "手动刷新中"
			return m, m.loadQueueCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "1", "s":
			return m, m.overrideCmd(beatmap.TypeStream)
		case "2":
			return m, m.overrideCmd(beatmap.TypeJump)
		case "3", "a":
			return m, m.overrideCmd(beatmap.TypeAlt)
		case "4", "t":
			return m, m.overrideCmd(beatmap.TypeTech)
		case "5", "o":
			return m, m.overrideCmd(beatmap.TypeOthers)
		}
	}
	return m, nil
}

func (m *reviewModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Review Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"reviewer=%s refresh=%s", m.reviewer, m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.items) == 0 {
		builder.WriteString(dimStyle.Render("- queue empty"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.items {
			title := "(未知谱面)"
			if item.Info != nil {
				title = fmt.Sprintf("%s - %s", item.Info.Artist, item.Info.Title)
			}
			line := fmt.Sprintf("bid=%d reason=%s %s", item.Review.BID, item.Review.Reason, title)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		meta := m.detail.Metadata
		builder.WriteString(fmt.Sprintf("Beatmap: %s - %s [%s] by %s\n", meta.Artist, meta.Title, meta.DiffName, meta.CreatorName))
		builder.WriteString(fmt.Sprintf("Stats: ★%.2f CS%g AR%g OD%g HP%g BPM%g\n", meta.StarRating, meta.CS, meta.AR, meta.OD, meta.HP, meta.BPM))
		if m.detail.Analysis != nil {
			builder.WriteString(fmt.Sprintf("Catalog: %s (auto=%v)\n", m.detail.Analysis.DeterminedType, m.detail.Analysis.IsAutoTyped))
			builder.WriteString(fmt.Sprintf("Model verdict: %s\n", m.detail.ModelType))
			builder.WriteString("Probabilities: " + formatProbs(m.detail.Analysis.Probabilities) + "\n")
		} else {
			builder.WriteString("Catalog: (no analysis row)\n")
		}
		builder.WriteString("\nRecent Recommendations:\n")
		recs := m.detail.Recommendations
		if len(recs) == 0 {
			builder.WriteString("- none\n")
		} else {
			if len(recs) > maxShownRecommendations {
				recs = recs[:maxShownRecommendations]
			}
			for _, rec := range recs {
				name := "-"
				if rec.SubmitterName != nil {
					name = *rec.SubmitterName
				}
				builder.WriteString(fmt.Sprintf("- %s %s: %s\n", rec.CreatedAt.Format("2006-01-02"), name, rec.Description))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j 移动  g 刷新  1/s串 2跳 3/a双 4/t科技 5/o其他  q 退出"))
	return builder.String()
}

func (m *reviewModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *reviewModel) loadQueueCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.service.PendingReviews(m.ctx, queuePageSize)
		if err != nil {
			return queueLoadedMsg{err: err}
		}
		return queueLoadedMsg{items: items}
	}
}

func (m *reviewModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedItem()
	if !ok {
		return nil
	}
	bid := selected.Review.BID
	return func() tea.Msg {
		detail, err := m.service.BeatmapOverview(m.ctx, bid)
		if err != nil {
			return detailLoadedMsg{bid: bid, err: err}
		}
		return detailLoadedMsg{bid: bid, detail: detail, hasDetail: true}
	}
}

func (m *reviewModel) overrideCmd(newType beatmap.Type) tea.Cmd {
	selected, ok := m.selectedItem()
	if !ok {
		m.status = "没有可操作谱面"
		return nil
	}
	bid := selected.Review.BID
	m.status = fmt.Sprintf("正在将 %d 定为 %s...", bid, newType)
	return func() tea.Msg {
		err := m.service.Override(m.ctx, catalog.OverrideInput{
			BID:      bid,
			NewType:  newType,
			Reviewer: m.reviewer,
		})
		return overrideDoneMsg{bid: bid, newType: newType, err: err}
	}
}

func (m *reviewModel) selectedItem() (catalog.PendingReviewItem, bool) {
	if len(m.items) == 0 {
		return catalog.PendingReviewItem{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return catalog.PendingReviewItem{}, false
	}
	return m.items[m.selectedIndex], true
}

func (m *reviewModel) isCurrentSelected(bid int64) bool {
	selected, ok := m.selectedItem()
	if !ok {
		return false
	}
	return selected.Review.BID == bid
}

func (m *reviewModel) appendAuditLog(bid int64, newType beatmap.Type, opErr error) {
	outcome := "ok"
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s reviewer=%s bid=%d type=%s result=%s", timestamp, m.reviewer, bid, newType, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "review console action",
		slog.String("time", timestamp),
		slog.String("reviewer", m.reviewer),
		slog.Int64("bid", bid),
		slog.String("new_type", string(newType)),
		slog.String("result", outcome),
	)
}

func formatProbs(probs map[beatmap.Type]float64) string {
	if len(probs) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(probs))
	for _, typ := range []beatmap.Type{beatmap.TypeStream, beatmap.TypeJump, beatmap.TypeAlt, beatmap.TypeTech} {
		if prob, ok := probs[typ]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.2f", typ, prob))
		}
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
