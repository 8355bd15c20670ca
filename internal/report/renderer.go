// Package report renders tag reports to PDF files on disk.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jeff0926/webinsight-sub001/internal/logger"
)

// ReportItem is one captured document included in a report.
type ReportItem struct {
	// Title heads the item section.
	Title string

	// URL is printed under the title when present.
	URL string

	// Content is the item body. Long bodies are truncated in the PDF.
	Content string

	// ImagePNG holds the PNG bytes of a captured region, embedded under the
	// item header when present.
	ImagePNG []byte

	// CreatedAt is the capture time in Unix milliseconds.
	CreatedAt int64
}

// ReportData is everything a report page needs.
type ReportData struct {
	// TagName titles the report.
	TagName string

	// GeneratedAt is printed in the header.
	GeneratedAt time.Time

	// KeyPoints is the optional summary section. May be empty.
	KeyPoints []string

	// Items are the documents, newest first.
	Items []ReportItem
}

// Content longer than this is cut per item so one giant capture cannot
// balloon the report.
const maxItemRunes = 4000

// Renderer writes PDFs into a fixed directory.
type Renderer struct {
	dir string
}

// NewRenderer ensures the output directory exists.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Dir returns the directory reports are written to.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render writes the report PDF and returns its file name and page count.
func (r *Renderer) Render(data ReportData) (string, int, error) {
	if len(data.Items) == 0 {
		return "", 0, fmt.Errorf("report has no items")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// Header.
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 10, tr(fmt.Sprintf("Report: %s", data.TagName)), "", "L", false)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	meta := fmt.Sprintf("Generated %s · %d items", data.GeneratedAt.Format("2006-01-02 15:04"), len(data.Items))
	pdf.MultiCell(0, 6, tr(meta), "", "L", false)
	pdf.Ln(4)

	// Key points, when generation succeeded.
	if len(data.KeyPoints) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 8, "Key Points", "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		for _, p := range data.KeyPoints {
			pdf.MultiCell(0, 6, tr("-  "+p), "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	// One section per item.
	for i, item := range data.Items {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		pdf.MultiCell(0, 7, tr(title), "", "L", false)

		if item.URL != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(70, 70, 160)
			pdf.MultiCell(0, 5, tr(item.URL), "", "L", false)
		}
		if item.CreatedAt > 0 {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(128, 128, 128)
			captured := time.UnixMilli(item.CreatedAt).Format("2006-01-02 15:04")
			pdf.MultiCell(0, 5, "Captured "+captured, "", "L", false)
		}

		if len(item.ImagePNG) > 0 {
			embedImage(pdf, fmt.Sprintf("item-%d", i), item.ImagePNG)
		}

		body := strings.TrimSpace(item.Content)
		if body != "" {
			if runes := []rune(body); len(runes) > maxItemRunes {
				body = string(runes[:maxItemRunes]) + " [...]"
			}
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(40, 40, 40)
			pdf.MultiCell(0, 5, tr(body), "", "L", false)
		}
		pdf.Ln(5)
	}

	name := FileName(data.TagName, data.GeneratedAt)
	path := filepath.Join(r.dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", 0, fmt.Errorf("write pdf: %w", err)
	}
	return name, pdf.PageCount(), nil
}

// embedImage places a captured-region PNG at the cursor, scaled down to the
// printable width when needed but never scaled up. Undecodable bytes leave
// the item text-only; fpdf's sticky error must be cleared or the whole
// document fails at output time.
func embedImage(pdf *fpdf.Fpdf, name string, png []byte) {
	info := pdf.RegisterImageOptionsReader(name,
		fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if info == nil || !pdf.Ok() {
		logger.Warnf("report: skipping unreadable image for %s: %v", name, pdf.Error())
		pdf.ClearError()
		return
	}
	pageW, _ := pdf.GetPageSize()
	leftM, _, rightM, _ := pdf.GetMargins()
	maxW := pageW - leftM - rightM
	w := info.Width()
	if w > maxW {
		w = maxW
	}
	pdf.Ln(2)
	pdf.ImageOptions(name, leftM, 0, w, 0, true,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.Ln(3)
}

// Open returns the on-disk path for a previously rendered report, refusing
// names that do not look like ones Render produces.
func (r *Renderer) Open(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	path := filepath.Join(r.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report %s: %w", name, err)
	}
	return path, nil
}

var nameRe = regexp.MustCompile(`^report-[a-z0-9-]+-[0-9]+\.pdf$`)

// ValidName reports whether name matches the pattern Render produces. This
// is the only gate between the download endpoint and the filesystem.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// FileName builds the deterministic file name for a report.
func FileName(tagName string, at time.Time) string {
	return fmt.Sprintf("report-%s-%d.pdf", slug(tagName), at.Unix())
}

// slug lowercases the tag name and collapses anything outside [a-z0-9]
// into single dashes.
func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "untagged"
	}
	return out
}
