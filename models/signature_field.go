package models

import (
	"fmt"
	"strings"
	"time"
)

// FieldType classifies a placed signature field
type FieldType string

const (
	FieldSignature FieldType = "signature"
	FieldInitial   FieldType = "initial"
	FieldDate      FieldType = "date"
	FieldText      FieldType = "text"
	FieldCheckbox  FieldType = "checkbox"
)

// IsValid reports whether t is a known field type
func (t FieldType) IsValid() bool {
	switch t {
	case FieldSignature, FieldInitial, FieldDate, FieldText, FieldCheckbox:
		return true
	}
	return false
}

// IsImage reports whether the field's value is a raster image rather than text
func (t FieldType) IsImage() bool {
	return t == FieldSignature || t == FieldInitial
}

// SignatureField is a placed, typed region on a specific PDF page awaiting
// or holding a signer-provided value. Geometry uses a top-left origin in the
// same coordinate space as the page raster used for placement; pages are
// 1-indexed.
type SignatureField struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	SignerID   string    `json:"signer_id" db:"signer_id"`
	Type       FieldType `json:"type" db:"type"`
	Page       int       `json:"page" db:"page"`
	X          float64   `json:"x" db:"x"`
	Y          float64   `json:"y" db:"y"`
	Width      float64   `json:"width" db:"width"`
	Height     float64   `json:"height" db:"height"`
	Required   bool      `json:"required" db:"required"`
	Value      *string   `json:"value,omitempty" db:"value"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HasValue reports whether the field has been filled
func (f *SignatureField) HasValue() bool {
	return f.Value != nil && *f.Value != ""
}

// FieldForm represents a field placement submitted when sending a document.
// SignerRef matches the Ref of one of the submitted signers.
type FieldForm struct {
	SignerRef string  `json:"signer_ref"`
	Type      string  `json:"type"`
	Page      int     `json:"page"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Required  bool    `json:"required"`
}

// Validate validates the field placement data
func (f *FieldForm) Validate() []string {
	var errors []string

	if !FieldType(f.Type).IsValid() {
		errors = append(errors, fmt.Sprintf("Unknown field type %q", f.Type))
	}

	if f.Page < 1 {
		errors = append(errors, "Field page must be 1 or greater")
	}

	if f.Width <= 0 || f.Height <= 0 {
		errors = append(errors, "Field width and height must be positive")
	}

	if f.X < 0 || f.Y < 0 {
		errors = append(errors, "Field position must not be negative")
	}

	return errors
}

// GeometryForm represents a move/resize of an already placed field. Bounds
// are re-validated against the containing page's rendered size at the
// current display scale.
type GeometryForm struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
}

// Validate validates the geometry against the page bounds
func (f *GeometryForm) Validate() []string {
	var errors []string

	if f.Width <= 0 || f.Height <= 0 {
		errors = append(errors, "Field width and height must be positive")
	}

	if f.X < 0 || f.Y < 0 {
		errors = append(errors, "Field position must not be negative")
	}

	if f.PageWidth > 0 && f.X+f.Width > f.PageWidth {
		errors = append(errors, "Field extends beyond the right edge of the page")
	}

	if f.PageHeight > 0 && f.Y+f.Height > f.PageHeight {
		errors = append(errors, "Field extends beyond the bottom edge of the page")
	}

	return errors
}

// FieldValueKind tags the two value representations a field can carry
type FieldValueKind int

const (
	FieldValueText FieldValueKind = iota
	FieldValueImage
)

// FieldValue is the validated form of a signer-submitted value: either a
// literal string (date, text, checkbox) or a base64 PNG data URI
// (signature, initial).
type FieldValue struct {
	Kind      FieldValueKind
	Text      string
	ImageData string
}

// Raw returns the persisted string representation of the value
func (v FieldValue) Raw() string {
	if v.Kind == FieldValueImage {
		return v.ImageData
	}
	return v.Text
}

// ParseFieldValue validates a raw submitted value against the field type it
// is meant to fill. Image fields must carry an image data URI; text fields
// must not.
func ParseFieldValue(t FieldType, raw string) (FieldValue, error) {
	if strings.TrimSpace(raw) == "" {
		return FieldValue{}, NewValidationError("empty value")
	}

	isDataURI := strings.HasPrefix(raw, "data:image/")
	if t.IsImage() {
		if !isDataURI {
			return FieldValue{}, NewValidationError("%s field requires an image data URI", t)
		}
		return FieldValue{Kind: FieldValueImage, ImageData: raw}, nil
	}

	if isDataURI {
		return FieldValue{}, NewValidationError("%s field cannot hold image data", t)
	}
	return FieldValue{Kind: FieldValueText, Text: raw}, nil
}
