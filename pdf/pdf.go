// Package pdf implements the merge pipeline: burning field values into an
// uploaded PDF, generating the completion certificate and concatenating
// documents. pdfcpu operates on files, so every operation round-trips
// through a private temp directory.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const productName = "SimpleSign"

// FieldError records a per-field rendering failure. Field failures are
// collected and reported alongside the merged output instead of aborting
// the batch.
type FieldError struct {
	FieldID string
	Err     error
}

func (e FieldError) Error() string {
	if e.FieldID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("field %s: %v", e.FieldID, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// PageCount returns the number of pages in a PDF
func PageCount(pdfBytes []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdfBytes), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return ctx.PageCount, nil
}

// stampText draws a single text run onto the selected pages at an absolute
// position measured in points from the bottom-left page corner.
func stampText(path, text string, x, y, points float64, fillColor string, pages []string, conf *model.Configuration) error {
	desc := fmt.Sprintf("font:Helvetica, points:%.0f, scale:1 abs, pos:bl, rot:0, op:1, fillcol:%s", points, fillColor)

	wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse text stamp: %w", err)
	}
	wm.Dx = x
	wm.Dy = y

	if err := api.AddWatermarksFile(path, "", pages, wm, conf); err != nil {
		return fmt.Errorf("failed to apply text stamp: %w", err)
	}
	return nil
}

// decodeImageDataURI extracts the raw image bytes from a base64 data URI
// (data:image/png;base64,...)
func decodeImageDataURI(v string) ([]byte, error) {
	if !strings.HasPrefix(v, "data:image/") {
		return nil, fmt.Errorf("value is not an image data URI")
	}

	idx := strings.Index(v, ",")
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI: missing payload")
	}

	payload := v[idx+1:]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders omit padding
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	return data, nil
}

// writeTempPDF writes pdfBytes into dir under name and returns the path
func writeTempPDF(dir, name string, pdfBytes []byte) (string, error) {
	path := dir + string(os.PathSeparator) + name
	if err := os.WriteFile(path, pdfBytes, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp PDF: %w", err)
	}
	return path, nil
}
