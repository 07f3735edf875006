package reviewconsole

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"konbot/internal/domain/beatmap"
	"konbot/internal/ports"
	"konbot/internal/usecase/catalog"
)

func newTestModel() *reviewModel {
	model := NewReviewModel(context.Background(), nil, ReviewOptions{Reviewer: "admin"})
	return model.(*reviewModel)
}

func queueItem(bid int64, reason beatmap.ReviewReason) catalog.PendingReviewItem {
	return catalog.PendingReviewItem{
		Review: ports.PendingReview{
			BID:        bid,
			Reason:     reason,
			EnqueuedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestQueueLoadedClampsSelection(t *testing.T) {
	m := newTestModel()
	m.selectedIndex = 5

	next, _ := m.Update(queueLoadedMsg{items: []catalog.PendingReviewItem{
		queueItem(1, beatmap.ReasonModelAmbiguous),
		queueItem(2, beatmap.ReasonUserModelMismatch),
	}})
	updated := next.(*reviewModel)

	if updated.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want clamped to 1", updated.selectedIndex)
	}
	if !strings.Contains(updated.status, "2") {
		t.Fatalf("status = %q, want refresh count", updated.status)
	}
}

func TestQueueLoadedEmptyResets(t *testing.T) {
	m := newTestModel()
	m.items = []catalog.PendingReviewItem{queueItem(1, beatmap.ReasonModelAmbiguous)}
	m.hasDetail = true

	next, _ := m.Update(queueLoadedMsg{})
	updated := next.(*reviewModel)

	if updated.hasDetail {
		t.Fatalf("hasDetail must reset when the queue drains")
	}
	if updated.status != "队列为空" {
		t.Fatalf("status = %q", updated.status)
	}
}

func TestStaleDetailIgnored(t *testing.T) {
	m := newTestModel()
	m.items = []catalog.PendingReviewItem{queueItem(10, beatmap.ReasonModelAmbiguous)}
	m.selectedIndex = 0

	next, _ := m.Update(detailLoadedMsg{bid: 99, hasDetail: true})
	updated := next.(*reviewModel)

	if updated.hasDetail {
		t.Fatalf("detail for a deselected beatmap must be dropped")
	}
}

func TestOverrideDoneAppendsAudit(t *testing.T) {
	m := newTestModel()

	next, _ := m.Update(overrideDoneMsg{bid: 7, newType: beatmap.TypeTech})
	updated := next.(*reviewModel)

	if len(updated.auditLogs) != 1 {
		t.Fatalf("auditLogs = %v, want one entry", updated.auditLogs)
	}
	entry := updated.auditLogs[0]
	if !strings.Contains(entry, "bid=7") || !strings.Contains(entry, "type=tech") || !strings.Contains(entry, "result=ok") {
		t.Fatalf("audit entry = %q", entry)
	}
}

func TestAuditLogCapped(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxAuditLines+3; i++ {
		m.appendAuditLog(int64(i), beatmap.TypeStream, nil)
	}
	if len(m.auditLogs) != maxAuditLines {
		t.Fatalf("auditLogs len = %d, want cap %d", len(m.auditLogs), maxAuditLines)
	}
}

func TestViewRendersQueueAndKeys(t *testing.T) {
	m := newTestModel()
	m.items = []catalog.PendingReviewItem{queueItem(42, beatmap.ReasonUserModelMismatch)}

	view := m.View()
	if !strings.Contains(view, "bid=42") {
		t.Fatalf("view missing queue entry:\n%s", view)
	}
	if !strings.Contains(view, "reason=user_model_mismatch") {
		t.Fatalf("view missing reason:\n%s", view)
	}
	if !strings.Contains(view, "q 退出") {
		t.Fatalf("view missing key help:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q must produce a quit command")
	}
}
