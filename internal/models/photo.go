package models

import "time"

// PhotoCategory tags an uploaded execution photo. Three categories are
// required before a request can complete; optional photos are accepted
// without limit but never satisfy a required slot.
type PhotoCategory string

const (
	// PhotoBefore is the pre-loading shot.
	PhotoBefore PhotoCategory = "before"

	// PhotoAfter is the post-loading shot.
	PhotoAfter PhotoCategory = "after"

	// PhotoTiedown is the close-up of lashing/rope/banding.
	PhotoTiedown PhotoCategory = "tiedown"

	// PhotoOptional is any extra shot beyond the required slots.
	PhotoOptional PhotoCategory = "optional"
)

// RequiredPhotoCategories is the fixed set of slots that must all be present
// before execution can complete.
func RequiredPhotoCategories() []PhotoCategory {
	return []PhotoCategory{PhotoBefore, PhotoAfter, PhotoTiedown}
}

// Required reports whether this category counts toward the required set.
func (c PhotoCategory) Required() bool {
	return c == PhotoBefore || c == PhotoAfter || c == PhotoTiedown
}

// Photo is one uploaded execution photo record.
type Photo struct {
	ID         string        `json:"id"`
	RequestID  string        `json:"request_id"`
	Category   PhotoCategory `json:"category"`
	Path       string        `json:"path"`
	UploadedBy string        `json:"uploaded_by"`
	UploadedAt time.Time     `json:"uploaded_at"`
}

// MissingRequiredCategories returns the required slots not covered by the
// given photos, in the fixed slot order.
func MissingRequiredCategories(photos []Photo) []PhotoCategory {
	have := make(map[PhotoCategory]bool, len(photos))
	for _, p := range photos {
		have[p.Category] = true
	}
	var missing []PhotoCategory
	for _, c := range RequiredPhotoCategories() {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
