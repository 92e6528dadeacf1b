package content

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the review state of a content item.
type Status string

// Status constants.
const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Type is the kind of artifact a content item holds.
type Type string

// Content type constants.
const (
	TypeProductDescription Type = "product_description"
	TypeVideoScript        Type = "video_script"
	TypeImagePrompt        Type = "image_prompt"
)

// Types lists the known content types in display order.
var Types = []Type{TypeProductDescription, TypeVideoScript, TypeImagePrompt}

// Valid reports whether t is one of the known content types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human-readable name of t, e.g. "Video Script".
func (t Type) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
}

// Item is a single generated artifact under review.
type Item struct {
	ID            string    `json:"id"`
	BrandID       string    `json:"brand_id"`
	BrandManualID string    `json:"brand_manual_id"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	InputBrief    string    `json:"input_brief"`
	OutputText    string    `json:"output_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// Pending reports whether the item is still awaiting review.
func (i Item) Pending() bool {
	return i.Status == StatusPending
}

// Find returns the item with the given ID and whether it was present.
func Find(items []Item, id string) (Item, bool) {
	if id == "" {
		return Item{}, false
	}
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// IDs returns the identifiers of items in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
