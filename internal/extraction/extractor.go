package extraction

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
)

const (
	// binarySampleSize is the number of bytes inspected for binary detection.
	binarySampleSize = 1000
	// binaryThreshold is the proportion of non-printable characters above
	// which a file is considered binary rather than plain text.
	binaryThreshold = 0.3
)

var pdfMagic = []byte("%PDF-")

// ExtractText produces plain text from an uploaded resume file. PDF content
// goes through docconv; anything else is accepted as plain text as long as
// it doesn't look binary. Pure function over the file bytes.
func ExtractText(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file: %s", filename)
	}

	if isPDF(filename, data) {
		return extractPDF(filename, data)
	}

	if isBinary(data) {
		return "", fmt.Errorf("unsupported binary content: %s", filename)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text content in %s", filename)
	}
	return text, nil
}

func isPDF(filename string, data []byte) bool {
	if bytes.HasPrefix(data, pdfMagic) {
		return true
	}
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

func extractPDF(filename string, data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", true)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}

	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", filename)
	}
	return text, nil
}

func isBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}

	nonPrintable := 0
	for _, r := range string(sample) {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(sample)) > binaryThreshold
}
