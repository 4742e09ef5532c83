package models

import (
	"strings"
	"testing"
	"time"
)

// Test document status transitions
func TestDocumentStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to DocumentStatus
	}{
		{DocumentDraft, DocumentPending},
		{DocumentPending, DocumentCompleting},
		{DocumentPending, DocumentExpired},
		{DocumentPending, DocumentDeclined},
		{DocumentCompleting, DocumentCompleted},
	}
	for _, tr := range allowed {
		if !tr.from.CanTransition(tr.to) {
			t.Errorf("Expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct {
		from, to DocumentStatus
	}{
		{DocumentDraft, DocumentCompleted},
		{DocumentDraft, DocumentCompleting},
		{DocumentPending, DocumentCompleted},
		{DocumentCompleting, DocumentPending},
		{DocumentCompleted, DocumentPending},
		{DocumentExpired, DocumentPending},
		{DocumentDeclined, DocumentPending},
	}
	for _, tr := range denied {
		if tr.from.CanTransition(tr.to) {
			t.Errorf("Expected %s -> %s to be denied", tr.from, tr.to)
		}
	}
}

// Test terminal document states
func TestDocumentStatusIsTerminal(t *testing.T) {
	for _, s := range []DocumentStatus{DocumentCompleted, DocumentExpired, DocumentDeclined} {
		if !s.IsTerminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []DocumentStatus{DocumentDraft, DocumentPending, DocumentCompleting} {
		if s.IsTerminal() {
			t.Errorf("Expected %s not to be terminal", s)
		}
	}
}

// Test signer status transitions
func TestSignerStatusTransitions(t *testing.T) {
	if !SignerPending.CanTransition(SignerViewed) {
		t.Error("Expected pending -> viewed to be allowed")
	}
	if !SignerViewed.CanTransition(SignerSigned) {
		t.Error("Expected viewed -> signed to be allowed")
	}
	if !SignerPending.CanTransition(SignerDeclined) {
		t.Error("Expected pending -> declined to be allowed")
	}
	if SignerSigned.CanTransition(SignerDeclined) {
		t.Error("Expected signed -> declined to be denied")
	}
	if SignerDeclined.CanTransition(SignerSigned) {
		t.Error("Expected declined -> signed to be denied")
	}
}

// Test document expiry check
func TestDocumentIsExpired(t *testing.T) {
	now := time.Now()

	doc := Document{}
	if doc.IsExpired(now) {
		t.Error("Expected document without expiry never to expire")
	}

	past := now.Add(-time.Hour)
	doc.ExpiresAt = &past
	if !doc.IsExpired(now) {
		t.Error("Expected document with past expiry to be expired")
	}

	future := now.Add(time.Hour)
	doc.ExpiresAt = &future
	if doc.IsExpired(now) {
		t.Error("Expected document with future expiry not to be expired")
	}
}

// Test SignerForm validation
func TestSignerFormValidation(t *testing.T) {
	validForm := SignerForm{
		Ref:   "signer-1",
		Name:  "Jane Doe",
		Email: "jane@example.com",
	}
	errors := validForm.Validate()
	if len(errors) != 0 {
		t.Errorf("Expected no errors for valid form, got: %v", errors)
	}

	invalidForm := SignerForm{
		Ref:   "signer-1",
		Name:  strings.Repeat("x", 101),
		Email: "not-an-email",
	}
	errors = invalidForm.Validate()
	if len(errors) != 2 {
		t.Errorf("Expected 2 errors for invalid form, got: %v", errors)
	}
}

// Test FieldForm validation
func TestFieldFormValidation(t *testing.T) {
	validForm := FieldForm{
		SignerRef: "signer-1",
		Type:      "signature",
		Page:      1,
		X:         50,
		Y:         100,
		Width:     200,
		Height:    60,
		Required:  true,
	}
	errors := validForm.Validate()
	if len(errors) != 0 {
		t.Errorf("Expected no errors for valid form, got: %v", errors)
	}

	invalidForm := FieldForm{
		SignerRef: "signer-1",
		Type:      "stamp", // Unknown type
		Page:      0,
		X:         -5,
		Width:     0,
		Height:    60,
	}
	errors = invalidForm.Validate()
	if len(errors) < 3 {
		t.Errorf("Expected at least 3 errors for invalid form, got: %v", errors)
	}
}

// Test GeometryForm validation against page bounds
func TestGeometryFormValidation(t *testing.T) {
	validForm := GeometryForm{
		X: 10, Y: 10, Width: 100, Height: 40,
		PageWidth: 595, PageHeight: 842,
	}
	if errors := validForm.Validate(); len(errors) != 0 {
		t.Errorf("Expected no errors for valid geometry, got: %v", errors)
	}

	offPage := GeometryForm{
		X: 550, Y: 10, Width: 100, Height: 40,
		PageWidth: 595, PageHeight: 842,
	}
	if errors := offPage.Validate(); len(errors) == 0 {
		t.Error("Expected error for field extending past the right edge")
	}

	negative := GeometryForm{X: -1, Y: 0, Width: 100, Height: 40}
	if errors := negative.Validate(); len(errors) == 0 {
		t.Error("Expected error for negative position")
	}
}

// Test field value parsing per field type
func TestParseFieldValue(t *testing.T) {
	pngURI := "data:image/png;base64,iVBORw0KGgo="

	// Image fields require a data URI
	v, err := ParseFieldValue(FieldSignature, pngURI)
	if err != nil {
		t.Fatalf("Expected signature data URI to be accepted: %v", err)
	}
	if v.Kind != FieldValueImage || v.Raw() != pngURI {
		t.Errorf("Expected image value to round-trip, got kind %d raw %q", v.Kind, v.Raw())
	}

	_, err = ParseFieldValue(FieldSignature, "John Hancock")
	if err == nil {
		t.Error("Expected plain text to be rejected for a signature field")
	} else if !IsValidationError(err) {
		t.Errorf("Expected a validation error, got: %v", err)
	}

	// Text fields must not carry image data
	v, err = ParseFieldValue(FieldText, "some text")
	if err != nil {
		t.Fatalf("Expected text value to be accepted: %v", err)
	}
	if v.Kind != FieldValueText || v.Raw() != "some text" {
		t.Errorf("Expected text value to round-trip, got kind %d raw %q", v.Kind, v.Raw())
	}

	if _, err := ParseFieldValue(FieldDate, pngURI); err == nil {
		t.Error("Expected image data to be rejected for a date field")
	}

	// Empty values are always rejected
	if _, err := ParseFieldValue(FieldText, "   "); err == nil {
		t.Error("Expected blank value to be rejected")
	}
}

// Test field type helpers
func TestFieldTypeHelpers(t *testing.T) {
	for _, ft := range []FieldType{FieldSignature, FieldInitial, FieldDate, FieldText, FieldCheckbox} {
		if !ft.IsValid() {
			t.Errorf("Expected %s to be a valid field type", ft)
		}
	}
	if FieldType("stamp").IsValid() {
		t.Error("Expected unknown field type to be invalid")
	}

	if !FieldSignature.IsImage() || !FieldInitial.IsImage() {
		t.Error("Expected signature and initial to be image fields")
	}
	if FieldDate.IsImage() || FieldText.IsImage() || FieldCheckbox.IsImage() {
		t.Error("Expected date, text and checkbox not to be image fields")
	}
}

// Test WaitlistForm validation
func TestWaitlistFormValidation(t *testing.T) {
	validForm := WaitlistForm{Email: "someone@example.com"}
	if errors := validForm.Validate(); len(errors) != 0 {
		t.Errorf("Expected no errors for valid form, got: %v", errors)
	}

	invalidForm := WaitlistForm{Email: "nope"}
	if errors := invalidForm.Validate(); len(errors) != 1 {
		t.Errorf("Expected 1 error for invalid form, got: %v", errors)
	}
}
