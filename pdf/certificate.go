package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/simplesign/simplesign/models"
)

// Certificate page layout, A4 in points. Each signer block advances the
// vertical cursor by signerBlockStep; rosters longer than signersPerPage
// continue on additional pages.
const (
	certPageWidth   = 595.0
	certPageHeight  = 842.0
	signerBlockTop  = certPageHeight - 210
	signerBlockStep = 45.0
	signersPerPage  = 13
)

// CertificateSigner is one roster entry on the completion certificate
type CertificateSigner struct {
	Name     string
	Email    string
	SignedAt time.Time
}

// GenerateCertificate produces the completion certificate: a heading, the
// document title, and one block per signer with name, email and signing
// timestamp, plus a generation footer on every page.
func GenerateCertificate(documentTitle string, signers []CertificateSigner) ([]byte, error) {
	conf := model.NewDefaultConfiguration()

	tmpDir, err := os.MkdirTemp("", "simplesign-cert-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	chunks := chunkSigners(signers, signersPerPage)

	var pagePaths []string
	for i, chunk := range chunks {
		path := filepath.Join(tmpDir, fmt.Sprintf("certificate-%d.pdf", i))
		if err := renderCertificatePage(path, documentTitle, chunk, i > 0, conf); err != nil {
			return nil, err
		}
		pagePaths = append(pagePaths, path)
	}

	if len(pagePaths) == 1 {
		return os.ReadFile(pagePaths[0])
	}

	outPath := filepath.Join(tmpDir, "certificate.pdf")
	if err := api.MergeCreateFile(pagePaths, outPath, false, conf); err != nil {
		return nil, fmt.Errorf("failed to merge certificate pages: %w", err)
	}

	return os.ReadFile(outPath)
}

// chunkSigners splits the roster into per-page chunks. An empty roster
// still yields one (empty) page so the certificate always exists.
func chunkSigners(signers []CertificateSigner, perPage int) [][]CertificateSigner {
	if len(signers) == 0 {
		return [][]CertificateSigner{nil}
	}

	var chunks [][]CertificateSigner
	for start := 0; start < len(signers); start += perPage {
		end := start + perPage
		if end > len(signers) {
			end = len(signers)
		}
		chunks = append(chunks, signers[start:end])
	}
	return chunks
}

type certLine struct {
	text   string
	x, y   float64
	points float64
	color  string
}

// blankPagePDF assembles a single-page PDF of the given size in points:
// catalog, page tree, one page with an empty content stream, and a
// computed xref. pdfcpu has no blank-page creation call that yields a
// page tree, so the skeleton is built directly; all rendering onto it
// still goes through pdfcpu watermarks.
func blankPagePDF(width, height float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		fmt.Sprintf("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Resources << >> /Contents 4 0 R >>\nendobj\n",
			width, height),
		"4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n",
	}

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		buf.WriteString(obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// renderCertificatePage writes a single A4 certificate page to path
func renderCertificatePage(path, documentTitle string, signers []CertificateSigner, continued bool, conf *model.Configuration) error {
	if err := os.WriteFile(path, blankPagePDF(certPageWidth, certPageHeight), 0o600); err != nil {
		return fmt.Errorf("failed to write certificate page: %w", err)
	}

	sectionHeader := "Signatures:"
	if continued {
		sectionHeader = "Signatures (continued):"
	}

	lines := []certLine{
		{"Certificate of Completion", 50, certPageHeight - 80, 24, "#1a1a33"},
		{fmt.Sprintf("Document: %s", documentTitle), 50, certPageHeight - 130, 14, "#333333"},
		{sectionHeader, 50, certPageHeight - 180, 12, "#4d4d4d"},
	}

	y := signerBlockTop
	for _, signer := range signers {
		name := signer.Name
		if name == "" {
			name = signer.Email
		}
		lines = append(lines,
			certLine{fmt.Sprintf("• %s (%s)", name, signer.Email), 60, y, 11, "#333333"},
			certLine{fmt.Sprintf("   Signed: %s", models.FormatDateTime(signer.SignedAt)), 60, y - 15, 9, stampColor},
		)
		y -= signerBlockStep
	}

	lines = append(lines,
		certLine{fmt.Sprintf("Generated: %s", models.FormatDateTime(time.Now())), 50, 60, 9, stampColor},
		certLine{fmt.Sprintf("%s - e-signatures for small businesses", productName), 50, 40, 9, stampColor},
	)

	for _, line := range lines {
		if err := stampText(path, line.text, line.x, line.y, line.points, line.color, []string{"1"}, conf); err != nil {
			return err
		}
	}

	return nil
}
