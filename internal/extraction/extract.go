// Package extraction pulls plain text out of uploaded resume files.
package extraction

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported MIME types
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxFileSize is the largest file accepted for extraction
const MaxFileSize = 10 << 20

// Error is returned when a file cannot be turned into text
type Error struct {
	MIME    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed (%s): %s: %v", e.MIME, e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed (%s): %s", e.MIME, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var extensionTypes = map[string]string{
	".txt":  MIMEText,
	".md":   MIMEText,
	".pdf":  MIMEPDF,
	".docx": MIMEDocx,
}

// DetectMIME resolves the type of an upload. A specific declared type wins; otherwise the
// file extension decides, then the content itself.
func DetectMIME(filename, declared string, data []byte) string {
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = declared[:i]
	}
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if mime, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mime
	}
	detected := http.DetectContentType(data)
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	return detected
}

// Extract returns the cleaned text of a file of the given MIME type
func Extract(mime string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &Error{MIME: mime, Message: "file is empty"}
	}
	if len(data) > MaxFileSize {
		return "", &Error{MIME: mime, Message: fmt.Sprintf("file is larger than %d bytes", MaxFileSize)}
	}

	var (
		text string
		err  error
	)
	switch mime {
	case MIMEText:
		text = string(data)
	case MIMEPDF:
		text, err = extractPDF(data)
	case MIMEDocx:
		text, err = extractDocx(data)
	default:
		return "", &Error{MIME: mime, Message: "unsupported file type"}
	}
	if err != nil {
		return "", err
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", &Error{MIME: mime, Message: "no text found"}
	}
	return cleaned, nil
}

// ExtractFile reads a file from disk and extracts its text
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return Extract(DetectMIME(path, "", data), data)
}

func extractPDF(data []byte) (out string, outErr error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			out, outErr = "", &Error{MIME: MIMEPDF, Message: fmt.Sprintf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{MIME: MIMEPDF, Message: "failed to read pdf", Cause: err}
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &Error{MIME: MIMEPDF, Message: fmt.Sprintf("failed to read page %d", i), Cause: err}
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &Error{MIME: MIMEDocx, Message: "failed to parse docx", Cause: err}
	}
	defer func() { _ = doc.Close() }()

	return documentXMLText(doc.Editable().GetContent())
}

// documentXMLText flattens WordprocessingML into one line per paragraph
func documentXMLText(content string) (string, error) {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", &Error{MIME: MIMEDocx, Message: "failed to parse document body", Cause: err}
	}

	var lines []string
	parsed.Find(`w\:p`).Each(func(_ int, p *goquery.Selection) {
		var sb strings.Builder
		p.Find(`w\:t, w\:tab`).Each(func(_ int, run *goquery.Selection) {
			if goquery.NodeName(run) == "w:tab" {
				sb.WriteString(" ")
				return
			}
			sb.WriteString(run.Text())
		})
		lines = append(lines, sb.String())
	})
	return strings.Join(lines, "\n"), nil
}
