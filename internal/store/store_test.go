package store

import (
	"errors"
	"testing"

	ghdb "github.com/ghosthub/ghosthub/internal/db"
	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := ghdb.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ghdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNew_RequiresDB(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestClassification_RoundTrip(t *testing.T) {
	s := testStore(t)
	in := &models.Classification{
		MessageText:      "the export button crashes",
		Platform:         "slack",
		Author:           "ava",
		MessageTimestamp: 1700000000000,
		Category:         models.CategoryBug,
		Confidence:       models.ConfidenceHigh,
		RawResponse:      "category: bug, confidence: high",
	}
	id, err := s.InsertClassification(in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("insert must assign a non-zero id")
	}

	got, err := s.GetClassification(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MessageText != in.MessageText || got.Category != in.Category ||
		got.Confidence != in.Confidence || got.Platform != in.Platform {
		t.Errorf("round trip = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("insert must set the creation timestamp")
	}
}

func TestInsert_MonotonicIDs(t *testing.T) {
	s := testStore(t)
	var last uint
	for i := 0; i < 3; i++ {
		id, err := s.InsertSummary(&models.Summary{ThreadID: "t1", Platform: "slack", MessageCount: 1})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if id <= last {
			t.Fatalf("ids must increase: %d after %d", id, last)
		}
		last = id
	}
}

func TestGet_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetDraft(999)
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQueryDrafts_FilterExactness(t *testing.T) {
	s := testStore(t)
	mk := func(status models.DraftStatus, platform string) {
		t.Helper()
		d := &models.IssueDraft{Title: "t", Type: models.CategoryBug, Platform: platform, Status: status}
		if _, err := s.InsertDraft(d); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	mk(models.StatusDraft, "slack")
	mk(models.StatusApproved, "slack")
	mk(models.StatusDraft, "discord")
	mk(models.StatusDraft, "slack")

	got, err := s.QueryDrafts(Filter{"status": "draft", "platform": "slack"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, d := range got {
		if d.Status != models.StatusDraft || d.Platform != "slack" {
			t.Errorf("filter leaked record %+v", d)
		}
	}
	// Insertion order.
	if got[0].ID >= got[1].ID {
		t.Errorf("results not in insertion order: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestQuery_EmptyFilterReturnsAll(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 3; i++ {
		if _, err := s.InsertClassification(&models.Classification{
			MessageText: "m", Category: models.CategoryOther, Confidence: models.ConfidenceLow,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	got, err := s.QueryClassifications(nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestUpdate_PartialMerge(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertDraft(&models.IssueDraft{Title: "old", Platform: "slack", Type: models.CategoryBug, Status: models.StatusDraft})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.UpdateDraft(id, map[string]interface{}{"title": "new", "id": uint(42)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetDraft(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "new" {
		t.Errorf("Title = %q, want new", got.Title)
	}
	if got.Platform != "slack" {
		t.Errorf("unlisted field changed: Platform = %q", got.Platform)
	}
	if got.ID != id {
		t.Errorf("id must be immutable, got %d", got.ID)
	}
}

func TestUpdate_DoesNotMutateCallerMap(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertDraft(&models.IssueDraft{Title: "old", Platform: "slack", Type: models.CategoryBug, Status: models.StatusDraft})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	fields := map[string]interface{}{"title": "new", "id": uint(42)}
	if err := s.UpdateDraft(id, fields); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("caller map mutated: %v", fields)
	}
	if _, ok := fields["id"]; !ok {
		t.Error("id key stripped from caller map")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := testStore(t)
	err := s.UpdateSummary(404, map[string]interface{}{"summary": "x"})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete_ThenGone(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertSummary(&models.Summary{ThreadID: "t", MessageCount: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteSummary(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetSummary(id); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSummary(id); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestClear_EmptiesOnlyOneCollection(t *testing.T) {
	s := testStore(t)
	if _, err := s.InsertClassification(&models.Classification{MessageText: "m", Category: models.CategoryOther, Confidence: models.ConfidenceLow}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertDraft(&models.IssueDraft{Title: "t", Type: models.CategoryBug, Status: models.StatusDraft}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearClassifications(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cls, err := s.QueryClassifications(nil)
	if err != nil || len(cls) != 0 {
		t.Errorf("classifications after clear = %d, err %v", len(cls), err)
	}
	drafts, err := s.QueryDrafts(nil)
	if err != nil || len(drafts) != 1 {
		t.Errorf("drafts must survive a classification clear, got %d, err %v", len(drafts), err)
	}
}

func TestUpdateDraftStatus_Approve(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertDraft(&models.IssueDraft{Title: "t", Type: models.CategoryBug, Status: models.StatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	d, err := s.UpdateDraftStatus(id, models.StatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if d.Status != models.StatusApproved {
		t.Errorf("Status = %s, want approved", d.Status)
	}
	got, _ := s.GetDraft(id)
	if got.Status != models.StatusApproved {
		t.Errorf("stored Status = %s, want approved", got.Status)
	}
}

func TestUpdateDraftStatus_TerminalIsFinal(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertDraft(&models.IssueDraft{Title: "t", Type: models.CategoryBug, Status: models.StatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateDraftStatus(id, models.StatusApproved); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	// Second transition attempt must fail and leave the record unchanged.
	if _, err := s.UpdateDraftStatus(id, models.StatusRejected); !errors.Is(err, fault.ErrInvalidTransition) {
		t.Errorf("second transition = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.UpdateDraftStatus(id, models.StatusApproved); !errors.Is(err, fault.ErrInvalidTransition) {
		t.Errorf("repeat approve = %v, want ErrInvalidTransition", err)
	}
	got, _ := s.GetDraft(id)
	if got.Status != models.StatusApproved {
		t.Errorf("status reverted to %s", got.Status)
	}
}

func TestUpdateDraftStatus_RejectsInvalidValues(t *testing.T) {
	s := testStore(t)
	id, err := s.InsertDraft(&models.IssueDraft{Title: "t", Type: models.CategoryBug, Status: models.StatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	for _, bad := range []models.DraftStatus{"draft", "published", ""} {
		if _, err := s.UpdateDraftStatus(id, bad); !errors.Is(err, fault.ErrInvalidTransition) {
			t.Errorf("UpdateDraftStatus(%q) = %v, want ErrInvalidTransition", bad, err)
		}
	}
	got, _ := s.GetDraft(id)
	if got.Status != models.StatusDraft {
		t.Errorf("status changed to %s", got.Status)
	}
}

func TestUpdateDraftStatus_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.UpdateDraftStatus(77, models.StatusApproved)
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
