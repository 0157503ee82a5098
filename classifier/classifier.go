// Package classifier wraps the external vision model that inspects a
// submitted waste image and returns a severity verdict. The service only
// gates on the verdict's severity; everything else is passed through to
// storage untouched.
package classifier

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps classifier transport failures. A request failing
// with it was neither scored nor rewarded and can be retried.
var ErrUnavailable = errors.New("classifier unavailable")

// Request carries one image plus metadata for validation.
type Request struct {
	ImageBase64 string
	Description string
	Location    string
	Timestamp   time.Time
}

// WasteType is one identified waste category.
type WasteType struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// RecyclableItem is the recyclability call for one visible item.
type RecyclableItem struct {
	Item       string `json:"item"`
	Recyclable bool   `json:"recyclable"`
	Notes      string `json:"notes,omitempty"`
}

// Verdict is the consumed model output. Severity drives the reward gate;
// Raw keeps the complete model response for storage.
type Verdict struct {
	IsValid         bool             `json:"is_valid"`
	Message         string           `json:"message"`
	ConfidenceScore float64          `json:"confidence_score"`
	Severity        string           `json:"severity"`
	WasteTypes      []WasteType      `json:"waste_types"`
	RecyclableItems []RecyclableItem `json:"recyclable_items"`

	Raw string `json:"-"`
}

// Client validates waste images.
type Client interface {
	Validate(ctx context.Context, req Request) (*Verdict, error)
}
