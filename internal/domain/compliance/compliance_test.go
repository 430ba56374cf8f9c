package compliance

import (
	"testing"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestCreateTracker(t *testing.T) {
	tracker, err := CreateTracker(CreateTrackerInput{
		OrgID:    "org-1",
		Name:     " Déclarations CNPS ",
		Category: CategoryCNPS,
	}, fixedNow, nil)
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	if tracker.Name != "Déclarations CNPS" {
		t.Fatalf("name = %q", tracker.Name)
	}
	if !tracker.Active {
		t.Fatal("tracker should start active")
	}
}

func TestCreateTrackerValidation(t *testing.T) {
	if _, err := CreateTracker(CreateTrackerInput{OrgID: "org-1", Category: CategoryTax}, fixedNow, nil); err != ErrEmptyName {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	_, err := CreateTracker(CreateTrackerInput{OrgID: "org-1", Name: "Taxes"}, fixedNow, nil)
	if !apperrors.IsCode(err, apperrors.CodeTrackerInvalidCategory) {
		t.Fatalf("err = %v, want invalid category", err)
	}
}

func TestCreateItemDefaultsPriority(t *testing.T) {
	item, err := CreateItem(CreateItemInput{
		OrgID:     "org-1",
		TrackerID: "tracker-1",
		Title:     "Déclaration mensuelle",
		DueDate:   fixedNow().AddDate(0, 0, 10),
	}, fixedNow, nil)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Status != ItemOpen {
		t.Fatalf("status = %v, want open", item.Status)
	}
	if item.Priority != PriorityMedium {
		t.Fatalf("priority = %v, want medium default", item.Priority)
	}
}

func TestUpdateTracker(t *testing.T) {
	tracker := Tracker{ID: "tracker-1", Name: "Taxes", Category: CategoryTax, Active: true}

	name := "Impôts locaux"
	active := false
	updated, err := UpdateTracker(tracker, UpdateTrackerInput{Name: &name, Active: &active}, fixedNow)
	if err != nil {
		t.Fatalf("update tracker: %v", err)
	}
	if updated.Name != "Impôts locaux" || updated.Active {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Category != CategoryTax {
		t.Fatalf("category changed to %v", updated.Category)
	}

	empty := " "
	if _, err := UpdateTracker(tracker, UpdateTrackerInput{Name: &empty}, fixedNow); err != ErrEmptyName {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestUpdateItem(t *testing.T) {
	item := ActionItem{ID: "item-1", Status: ItemOpen, Title: "Déclaration", Priority: PriorityMedium}

	status := ItemInProgress
	priority := PriorityHigh
	updated, err := UpdateItem(item, UpdateItemInput{Status: &status, Priority: &priority}, fixedNow)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Status != ItemInProgress || updated.Priority != PriorityHigh {
		t.Fatalf("updated = %+v", updated)
	}

	done := ItemDone
	if _, err := UpdateItem(item, UpdateItemInput{Status: &done}, fixedNow); !apperrors.IsCode(err, apperrors.CodeActionItemInvalidStatus) {
		t.Fatalf("err = %v, want invalid status", err)
	}
	if _, err := UpdateItem(ActionItem{Status: ItemDone}, UpdateItemInput{}, fixedNow); err != ErrAlreadyDone {
		t.Fatalf("err = %v, want ErrAlreadyDone", err)
	}
}

func TestCompleteIsTerminal(t *testing.T) {
	item := ActionItem{ID: "item-1", Status: ItemInProgress}
	done, err := Complete(item, fixedNow)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != ItemDone {
		t.Fatalf("status = %v, want done", done.Status)
	}
	if _, err := Complete(done, fixedNow); err != ErrAlreadyDone {
		t.Fatalf("err = %v, want ErrAlreadyDone", err)
	}
}

func TestIsOverdue(t *testing.T) {
	due := fixedNow().AddDate(0, 0, -1)
	cases := []struct {
		name string
		item ActionItem
		want bool
	}{
		{"open past due", ActionItem{Status: ItemOpen, DueDate: due}, true},
		{"in progress past due", ActionItem{Status: ItemInProgress, DueDate: due}, true},
		{"done past due", ActionItem{Status: ItemDone, DueDate: due}, false},
		{"already overdue", ActionItem{Status: ItemOverdue, DueDate: due}, false},
		{"no due date", ActionItem{Status: ItemOpen}, false},
		{"future due", ActionItem{Status: ItemOpen, DueDate: fixedNow().AddDate(0, 0, 1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOverdue(tc.item, fixedNow()); got != tc.want {
				t.Fatalf("overdue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLabelRoundTrips(t *testing.T) {
	for _, status := range []ItemStatus{ItemOpen, ItemInProgress, ItemDone, ItemOverdue} {
		if got := ItemStatusFromLabel(ItemStatusLabel(status)); got != status {
			t.Fatalf("status round trip %v -> %v", status, got)
		}
	}
	for _, priority := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if got := PriorityFromLabel(PriorityLabel(priority)); got != priority {
			t.Fatalf("priority round trip %v -> %v", priority, got)
		}
	}
	for _, category := range []Category{CategoryCNPS, CategoryTax, CategoryContract} {
		if got := CategoryFromLabel(CategoryLabel(category)); got != category {
			t.Fatalf("category round trip %v -> %v", category, got)
		}
	}
}
