package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/simplesign/simplesign/models"
)

// Fixed layout constants for field rendering. Field geometry arrives with a
// top-left origin; PDF user space has a bottom-left origin, so the vertical
// coordinate is flipped per page: pdfY = pageHeight - y - height.
const (
	textInsetX     = 5.0  // text runs start slightly inside the field box
	imageMargin    = 10.0 // image fields shrink by this margin on each axis
	fieldFontSize  = 12.0
	stampFontSize  = 8.0
	fieldTextColor = "#1a1a1a"
	stampColor     = "#808080"
)

// MergeFields burns every filled field value into the original PDF and
// stamps a provenance line on the last page. Per-field rendering failures
// are collected and returned; they never abort the merge of other fields.
// The operation as a whole fails only when the source PDF cannot be parsed.
func MergeFields(original []byte, fields []models.SignatureField) ([]byte, []FieldError, error) {
	conf := model.NewDefaultConfiguration()

	tmpDir, err := os.MkdirTemp("", "simplesign-merge-")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	docPath, err := writeTempPDF(tmpDir, "document.pdf", original)
	if err != nil {
		return nil, nil, err
	}

	ctx, err := api.ReadContextFile(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pageCount := ctx.PageCount
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	var fieldErrs []FieldError
	for i, field := range fields {
		if !field.HasValue() {
			continue
		}

		// Out-of-range pages are skipped silently; upstream invariants
		// should prevent them from ever being placed.
		if field.Page < 1 || field.Page > pageCount {
			continue
		}

		pageHeight := dims[field.Page-1].Height
		pdfY := pageHeight - field.Y - field.Height
		pages := []string{strconv.Itoa(field.Page)}

		switch {
		case field.Type == models.FieldDate || field.Type == models.FieldText:
			err = stampText(docPath, *field.Value, field.X+textInsetX, pdfY+field.Height/3,
				fieldFontSize, fieldTextColor, pages, conf)
		case field.Type.IsImage():
			err = stampFieldImage(docPath, tmpDir, i, field, pdfY, conf)
		default:
			// Checkbox values have no rendering
			continue
		}

		if err != nil {
			fieldErrs = append(fieldErrs, FieldError{FieldID: field.ID, Err: err})
		}
	}

	// Completion watermark on the last page, independent of field content.
	provenance := fmt.Sprintf("Signed digitally via %s - %s", productName, models.FormatDateTime(time.Now()))
	if err := stampText(docPath, provenance, 50, 30, stampFontSize, stampColor,
		[]string{strconv.Itoa(pageCount)}, conf); err != nil {
		fieldErrs = append(fieldErrs, FieldError{Err: fmt.Errorf("provenance stamp: %w", err)})
	}

	merged, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read merged PDF: %w", err)
	}

	return merged, fieldErrs, nil
}

// stampFieldImage decodes the field's PNG data URI and stamps it centered
// within the field box, uniformly scaled to fit inside the box minus a
// fixed margin.
func stampFieldImage(docPath, tmpDir string, idx int, field models.SignatureField, pdfY float64, conf *model.Configuration) error {
	data, err := decodeImageDataURI(*field.Value)
	if err != nil {
		return err
	}

	imgCfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode PNG: %w", err)
	}

	imgWidth := float64(imgCfg.Width)
	imgHeight := float64(imgCfg.Height)
	availWidth := field.Width - imageMargin
	availHeight := field.Height - imageMargin
	if imgWidth <= 0 || imgHeight <= 0 || availWidth <= 0 || availHeight <= 0 {
		return fmt.Errorf("field box %gx%g too small for image %dx%d",
			field.Width, field.Height, imgCfg.Width, imgCfg.Height)
	}

	scale := math.Min(availWidth/imgWidth, availHeight/imgHeight)
	// pdfcpu caps the watermark scale factor at 1; signature captures are
	// larger than their field box in practice, so this only affects tiny
	// images, which render at natural size.
	if scale > 1 {
		scale = 1
	}
	scaledWidth := imgWidth * scale
	scaledHeight := imgHeight * scale

	imgPath := filepath.Join(tmpDir, fmt.Sprintf("field-%d.png", idx))
	if err := os.WriteFile(imgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	// pos:full with Dx/Dy overrides gives absolute positioning in points.
	desc := fmt.Sprintf("scale:%.4f abs, pos:full, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(imgPath, desc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse image stamp: %w", err)
	}
	wm.Dx = field.X + (field.Width-scaledWidth)/2
	wm.Dy = pdfY + (field.Height-scaledHeight)/2

	pages := []string{strconv.Itoa(field.Page)}
	if err := api.AddWatermarksFile(docPath, "", pages, wm, conf); err != nil {
		return fmt.Errorf("failed to apply image stamp: %w", err)
	}

	return nil
}
