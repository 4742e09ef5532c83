package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Combine concatenates the given PDFs in order, preserving content, fonts
// and embedded resources. If any input fails to parse the whole operation
// fails.
func Combine(pdfs ...[]byte) ([]byte, error) {
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no documents to combine")
	}

	conf := model.NewDefaultConfiguration()

	tmpDir, err := os.MkdirTemp("", "simplesign-combine-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inFiles := make([]string, 0, len(pdfs))
	for i, pdfBytes := range pdfs {
		path, err := writeTempPDF(tmpDir, fmt.Sprintf("part-%d.pdf", i), pdfBytes)
		if err != nil {
			return nil, err
		}
		inFiles = append(inFiles, path)
	}

	outPath := filepath.Join(tmpDir, "combined.pdf")
	if err := api.MergeCreateFile(inFiles, outPath, false, conf); err != nil {
		return nil, fmt.Errorf("failed to combine documents: %w", err)
	}

	return os.ReadFile(outPath)
}
