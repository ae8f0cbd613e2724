// Package textconv converts uploaded files to plain text. It is the narrow
// collaborator behind document submission: unsupported extensions and
// conversion failures surface as client errors carrying the cause.
package textconv

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

var allowedExtensions = []string{".txt", ".pdf", ".docx", ".doc", ".md"}

type Converter struct{}

func New() *Converter {
	return &Converter{}
}

func (c *Converter) Convert(filename string, raw []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error
	switch ext {
	case ".txt", ".md":
		text, err = plainText(filename, raw)
	case ".pdf":
		text, err = pdfText(raw)
	case ".docx", ".doc":
		text, err = docxText(raw)
	default:
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"convert file to text",
			fmt.Errorf("only %s files are supported", strings.Join(allowedExtensions, ", ")),
		)
	}

	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "convert file to text", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "convert file to text", fmt.Errorf("no text content in %s", filename))
	}
	return text, nil
}

func plainText(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s is not valid utf-8", filename)
	}
	return string(raw), nil
}

func pdfText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return b.String(), nil
}
