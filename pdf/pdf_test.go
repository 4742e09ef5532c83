package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/simplesign/simplesign/models"
)

// 1x1 transparent PNG data URI
const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func strPtr(s string) *string {
	return &s
}

// makeFixture assembles a known-good one-page A4 PDF by hand so the merge
// and combine tests do not depend on any of the code under test
func makeFixture(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> /Contents 4 0 R >>\nendobj\n",
		"4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n",
	}

	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func makeRoster(n int) []CertificateSigner {
	signedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	roster := make([]CertificateSigner, n)
	for i := range roster {
		roster[i] = CertificateSigner{
			Name:     "Signer",
			Email:    "signer@example.com",
			SignedAt: signedAt,
		}
	}
	return roster
}

func TestPageCount(t *testing.T) {
	fixture := makeFixture(t)

	pages, err := PageCount(fixture)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if pages != 1 {
		t.Errorf("Expected 1 page, got %d", pages)
	}

	if _, err := PageCount([]byte("not a pdf")); err == nil {
		t.Error("Expected error for invalid PDF")
	}
}

func TestGenerateCertificatePagination(t *testing.T) {
	cases := []struct {
		signers int
		pages   int
	}{
		{0, 1},
		{1, 1},
		{13, 1},
		{14, 2},
		{30, 3},
	}

	for _, tc := range cases {
		data, err := GenerateCertificate("Pagination Test", makeRoster(tc.signers))
		if err != nil {
			t.Fatalf("GenerateCertificate with %d signers failed: %v", tc.signers, err)
		}

		pages, err := PageCount(data)
		if err != nil {
			t.Fatalf("Failed to count pages: %v", err)
		}
		if pages != tc.pages {
			t.Errorf("Expected %d pages for %d signers, got %d", tc.pages, tc.signers, pages)
		}
	}
}

func TestCombine(t *testing.T) {
	first := makeFixture(t)
	second, err := GenerateCertificate("Second", makeRoster(20))
	if err != nil {
		t.Fatalf("Failed to generate second PDF: %v", err)
	}
	secondPages, _ := PageCount(second)

	combined, err := Combine(first, second)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	pages, err := PageCount(combined)
	if err != nil {
		t.Fatalf("Failed to count combined pages: %v", err)
	}
	if pages != 1+secondPages {
		t.Errorf("Expected %d pages, got %d", 1+secondPages, pages)
	}

	if _, err := Combine(); err == nil {
		t.Error("Expected error when combining nothing")
	}
}

func TestMergeFieldsWithoutValues(t *testing.T) {
	fixture := makeFixture(t)

	fields := []models.SignatureField{
		{ID: "f1", Type: models.FieldSignature, Page: 1, X: 50, Y: 500, Width: 200, Height: 60},
		{ID: "f2", Type: models.FieldDate, Page: 1, X: 300, Y: 500, Width: 120, Height: 30},
	}

	merged, fieldErrs, err := MergeFields(fixture, fields)
	if err != nil {
		t.Fatalf("MergeFields failed: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Errorf("Expected no field errors, got: %v", fieldErrs)
	}

	pages, err := PageCount(merged)
	if err != nil {
		t.Fatalf("Failed to count pages: %v", err)
	}
	if pages != 1 {
		t.Errorf("Expected page count to be preserved, got %d", pages)
	}
}

func TestMergeFieldsStampsValues(t *testing.T) {
	fixture := makeFixture(t)

	fields := []models.SignatureField{
		{ID: "f1", Type: models.FieldSignature, Page: 1, X: 50, Y: 500, Width: 200, Height: 60, Value: strPtr(tinyPNG)},
		{ID: "f2", Type: models.FieldDate, Page: 1, X: 300, Y: 500, Width: 120, Height: 30, Value: strPtr("2026-08-28")},
		{ID: "f3", Type: models.FieldText, Page: 1, X: 50, Y: 600, Width: 150, Height: 30, Value: strPtr("Approved")},
		{ID: "f4", Type: models.FieldCheckbox, Page: 1, X: 50, Y: 650, Width: 20, Height: 20, Value: strPtr("true")},
	}

	merged, fieldErrs, err := MergeFields(fixture, fields)
	if err != nil {
		t.Fatalf("MergeFields failed: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Errorf("Expected no field errors, got: %v", fieldErrs)
	}

	pages, err := PageCount(merged)
	if err != nil {
		t.Fatalf("Merged output is not a readable PDF: %v", err)
	}
	if pages != 1 {
		t.Errorf("Expected page count to be preserved, got %d", pages)
	}
	if len(merged) <= len(fixture)/2 {
		t.Error("Expected merged output to carry stamped content")
	}
}

func TestMergeFieldsSkipsOutOfRangePages(t *testing.T) {
	fixture := makeFixture(t)

	fields := []models.SignatureField{
		{ID: "f1", Type: models.FieldText, Page: 99, X: 50, Y: 500, Width: 150, Height: 30, Value: strPtr("lost")},
	}

	_, fieldErrs, err := MergeFields(fixture, fields)
	if err != nil {
		t.Fatalf("MergeFields failed: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Errorf("Expected out-of-range field to be skipped quietly, got: %v", fieldErrs)
	}
}

func TestMergeFieldsCollectsBadImageErrors(t *testing.T) {
	fixture := makeFixture(t)

	fields := []models.SignatureField{
		// Valid base64 that is not a PNG
		{ID: "bad", Type: models.FieldSignature, Page: 1, X: 50, Y: 500, Width: 200, Height: 60, Value: strPtr("data:image/png;base64,aGVsbG8=")},
		{ID: "good", Type: models.FieldText, Page: 1, X: 50, Y: 600, Width: 150, Height: 30, Value: strPtr("still merged")},
	}

	merged, fieldErrs, err := MergeFields(fixture, fields)
	if err != nil {
		t.Fatalf("MergeFields failed: %v", err)
	}
	if len(fieldErrs) != 1 {
		t.Fatalf("Expected 1 field error, got: %v", fieldErrs)
	}
	if fieldErrs[0].FieldID != "bad" {
		t.Errorf("Expected error for field bad, got %s", fieldErrs[0].FieldID)
	}

	// The rest of the merge still produced a valid PDF
	if _, err := PageCount(merged); err != nil {
		t.Errorf("Merged output is not a readable PDF: %v", err)
	}
}

func TestMergeFieldsRejectsInvalidPDF(t *testing.T) {
	if _, _, err := MergeFields([]byte("garbage"), nil); err == nil {
		t.Error("Expected error for unparseable input")
	}
}
