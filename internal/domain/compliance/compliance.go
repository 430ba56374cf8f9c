// Package compliance provides compliance trackers and their action items.
package compliance

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

var (
	// ErrEmptyName indicates a missing tracker name.
	ErrEmptyName = apperrors.New(apperrors.CodeTrackerNameEmpty, "tracker name is required")
	// ErrEmptyTitle indicates a missing action item title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeActionItemTitleEmpty, "action item title is required")
	// ErrAlreadyDone indicates a completed item cannot change.
	ErrAlreadyDone = apperrors.New(apperrors.CodeActionItemAlreadyDone, "action item is already done")
)

// Category classifies what a tracker monitors.
type Category int

const (
	// CategoryUnspecified represents an invalid category.
	CategoryUnspecified Category = iota
	// CategoryCNPS covers social security declarations.
	CategoryCNPS
	// CategoryTax covers fiscal declarations.
	CategoryTax
	// CategoryContract covers contract renewals and registrations.
	CategoryContract
)

// ItemStatus represents the lifecycle status of an action item.
type ItemStatus int

const (
	// ItemUnspecified represents an invalid item status.
	ItemUnspecified ItemStatus = iota
	// ItemOpen indicates a newly created item.
	ItemOpen
	// ItemInProgress indicates the item is being worked.
	ItemInProgress
	// ItemDone indicates a completed item. Terminal.
	ItemDone
	// ItemOverdue indicates an open item past its due date.
	ItemOverdue
)

// Priority ranks the urgency of an action item.
type Priority int

const (
	// PriorityUnspecified represents an invalid priority.
	PriorityUnspecified Priority = iota
	// PriorityLow is routine work.
	PriorityLow
	// PriorityMedium is default urgency.
	PriorityMedium
	// PriorityHigh is deadline-critical work.
	PriorityHigh
)

// Tracker represents a compliance area an organization monitors.
type Tracker struct {
	ID          string
	OrgID       string
	Name        string
	Category    Category
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActionItem represents a dated obligation within a tracker.
type ActionItem struct {
	ID         string
	OrgID      string
	TrackerID  string
	Title      string
	AssigneeID string
	DueDate    time.Time
	Status     ItemStatus
	Priority   Priority
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateTrackerInput describes the metadata needed to create a tracker.
type CreateTrackerInput struct {
	OrgID       string
	Name        string
	Category    Category
	Description string
}

// CreateTracker creates an active tracker with a generated ID.
func CreateTracker(input CreateTrackerInput, now func() time.Time, idGenerator func() (string, error)) (Tracker, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.OrgID = strings.TrimSpace(input.OrgID)
	if input.OrgID == "" {
		return Tracker{}, apperrors.New(apperrors.CodeEmptyOrgID, "organization id is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Tracker{}, ErrEmptyName
	}
	if input.Category == CategoryUnspecified {
		return Tracker{}, apperrors.New(apperrors.CodeTrackerInvalidCategory, "tracker category is required")
	}

	trackerID, err := idGenerator()
	if err != nil {
		return Tracker{}, fmt.Errorf("generate tracker id: %w", err)
	}

	createdAt := now().UTC()
	return Tracker{
		ID:          trackerID,
		OrgID:       input.OrgID,
		Name:        input.Name,
		Category:    input.Category,
		Description: strings.TrimSpace(input.Description),
		Active:      true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// CreateItemInput describes the metadata needed to create an action item.
type CreateItemInput struct {
	OrgID      string
	TrackerID  string
	Title      string
	AssigneeID string
	DueDate    time.Time
	Priority   Priority
}

// CreateItem creates an open action item with a generated ID.
func CreateItem(input CreateItemInput, now func() time.Time, idGenerator func() (string, error)) (ActionItem, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.OrgID = strings.TrimSpace(input.OrgID)
	input.TrackerID = strings.TrimSpace(input.TrackerID)
	if input.OrgID == "" || input.TrackerID == "" {
		return ActionItem{}, apperrors.New(apperrors.CodeNotFound, "organization and tracker are required")
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return ActionItem{}, ErrEmptyTitle
	}
	if input.Priority == PriorityUnspecified {
		input.Priority = PriorityMedium
	}

	itemID, err := idGenerator()
	if err != nil {
		return ActionItem{}, fmt.Errorf("generate action item id: %w", err)
	}

	createdAt := now().UTC()
	return ActionItem{
		ID:         itemID,
		OrgID:      input.OrgID,
		TrackerID:  input.TrackerID,
		Title:      input.Title,
		AssigneeID: strings.TrimSpace(input.AssigneeID),
		DueDate:    input.DueDate,
		Status:     ItemOpen,
		Priority:   input.Priority,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// UpdateTrackerInput carries optional tracker field changes. Nil fields are
// left untouched.
type UpdateTrackerInput struct {
	Name        *string
	Category    *Category
	Description *string
	Active      *bool
}

// UpdateTracker applies the provided field changes to a tracker.
func UpdateTracker(tracker Tracker, input UpdateTrackerInput, now func() time.Time) (Tracker, error) {
	if now == nil {
		now = time.Now
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Tracker{}, ErrEmptyName
		}
		tracker.Name = name
	}
	if input.Category != nil {
		if *input.Category == CategoryUnspecified {
			return Tracker{}, apperrors.New(apperrors.CodeTrackerInvalidCategory, "tracker category is required")
		}
		tracker.Category = *input.Category
	}
	if input.Description != nil {
		tracker.Description = strings.TrimSpace(*input.Description)
	}
	if input.Active != nil {
		tracker.Active = *input.Active
	}
	tracker.UpdatedAt = now().UTC()
	return tracker, nil
}

// UpdateItemInput carries optional action item field changes. Nil fields are
// left untouched.
type UpdateItemInput struct {
	Title      *string
	AssigneeID *string
	DueDate    *time.Time
	Priority   *Priority
	Status     *ItemStatus
}

// UpdateItem applies the provided field changes to an undone item. Status may
// only move between open and in progress; completion goes through Complete.
func UpdateItem(item ActionItem, input UpdateItemInput, now func() time.Time) (ActionItem, error) {
	if now == nil {
		now = time.Now
	}
	if item.Status == ItemDone {
		return ActionItem{}, ErrAlreadyDone
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return ActionItem{}, ErrEmptyTitle
		}
		item.Title = title
	}
	if input.AssigneeID != nil {
		item.AssigneeID = strings.TrimSpace(*input.AssigneeID)
	}
	if input.DueDate != nil {
		item.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if *input.Priority == PriorityUnspecified {
			return ActionItem{}, apperrors.New(apperrors.CodeActionItemInvalidPriority, "action item priority is not valid")
		}
		item.Priority = *input.Priority
	}
	if input.Status != nil {
		if *input.Status != ItemOpen && *input.Status != ItemInProgress {
			return ActionItem{}, apperrors.New(apperrors.CodeActionItemInvalidStatus, "status may only move between OPEN and IN_PROGRESS")
		}
		item.Status = *input.Status
	}
	item.UpdatedAt = now().UTC()
	return item, nil
}

// Complete marks an item done. Completed items are immutable.
func Complete(item ActionItem, now func() time.Time) (ActionItem, error) {
	if now == nil {
		now = time.Now
	}
	if item.Status == ItemDone {
		return ActionItem{}, ErrAlreadyDone
	}
	item.Status = ItemDone
	item.UpdatedAt = now().UTC()
	return item, nil
}

// IsOverdue reports whether an undone item is past its due date.
func IsOverdue(item ActionItem, moment time.Time) bool {
	if item.Status == ItemDone || item.Status == ItemOverdue {
		return false
	}
	if item.DueDate.IsZero() {
		return false
	}
	return moment.UTC().After(item.DueDate)
}

// ItemStatusLabel returns the string label for an item status.
func ItemStatusLabel(status ItemStatus) string {
	switch status {
	case ItemOpen:
		return "OPEN"
	case ItemInProgress:
		return "IN_PROGRESS"
	case ItemDone:
		return "DONE"
	case ItemOverdue:
		return "OVERDUE"
	default:
		return "UNSPECIFIED"
	}
}

// ItemStatusFromLabel converts an item status label to an ItemStatus value.
func ItemStatusFromLabel(label string) ItemStatus {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "OPEN":
		return ItemOpen
	case "IN_PROGRESS":
		return ItemInProgress
	case "DONE":
		return ItemDone
	case "OVERDUE":
		return ItemOverdue
	default:
		return ItemUnspecified
	}
}

// PriorityLabel returns the string label for a priority.
func PriorityLabel(priority Priority) string {
	switch priority {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNSPECIFIED"
	}
}

// PriorityFromLabel converts a priority label to a Priority value.
func PriorityFromLabel(label string) Priority {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "LOW":
		return PriorityLow
	case "MEDIUM":
		return PriorityMedium
	case "HIGH":
		return PriorityHigh
	default:
		return PriorityUnspecified
	}
}

// CategoryLabel returns the string label for a tracker category.
func CategoryLabel(category Category) string {
	switch category {
	case CategoryCNPS:
		return "CNPS"
	case CategoryTax:
		return "TAX"
	case CategoryContract:
		return "CONTRACT"
	default:
		return "UNSPECIFIED"
	}
}

// CategoryFromLabel converts a category label to a Category value.
func CategoryFromLabel(label string) Category {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "CNPS":
		return CategoryCNPS
	case "TAX":
		return CategoryTax
	case "CONTRACT":
		return CategoryContract
	default:
		return CategoryUnspecified
	}
}
