package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Format is a supported document file type
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
)

// maxDocumentBytes bounds how large an uploaded document may be
const maxDocumentBytes = 20 << 20

// UnsupportedFormatError is returned for files whose type cannot be read
type UnsupportedFormatError struct {
	Name      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported file type for %s: no extension", e.Name)
	}
	return fmt.Sprintf("unsupported file type %q for %s", e.Extension, e.Name)
}

// ReadError wraps a failure to read or decode a supported document
type ReadError struct {
	Name    string
	Format  Format
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to read %s (%s): %s: %v", e.Name, e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to read %s (%s): %s", e.Name, e.Format, e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// DetectFormat maps a file name to a supported format
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".text", ".md":
		return FormatText, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	default:
		return "", &UnsupportedFormatError{Name: name, Extension: ext}
	}
}

// Document is the cleaned text of one uploaded file
type Document struct {
	Name     string
	Format   Format
	Text     string
	Metadata *Metadata
}

// ReadDocument decodes data according to the extension of name and returns cleaned text
func ReadDocument(name string, data []byte) (*Document, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if len(data) > maxDocumentBytes {
		return nil, &ReadError{Name: name, Format: format, Message: fmt.Sprintf("file exceeds %d bytes", maxDocumentBytes)}
	}

	var raw string
	switch format {
	case FormatPDF:
		raw, err = pdfText(data)
	case FormatDocx:
		raw, err = docxText(data)
	default:
		raw = string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	}
	if err != nil {
		return nil, &ReadError{Name: name, Format: format, Message: "could not extract text", Cause: err}
	}

	text := CleanText(raw)
	return &Document{
		Name:     name,
		Format:   format,
		Text:     text,
		Metadata: NewMetadata(text, name),
	}, nil
}

// ReadFile reads a document from disk
func ReadFile(path string) (*Document, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ReadDocument(filepath.Base(path), data)
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	// Read page by page so line structure survives for section detection
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// docxText walks word/document.xml, emitting text runs and a newline per paragraph
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if body == nil {
		return "", errors.New("no word/document.xml in archive")
	}
	defer func() { _ = body.Close() }()

	var sb strings.Builder
	decoder := xml.NewDecoder(body)
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
