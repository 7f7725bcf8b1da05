package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimguard/internal/extract"
	"github.com/ppiankov/claimguard/internal/model"
)

var (
	// ErrUnsupportedType is returned for extensions outside the allow list
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrTooLarge is returned when a file exceeds the configured size limit
	ErrTooLarge = errors.New("document too large")

	// ErrNoText is returned when a document yields no usable text
	ErrNoText = errors.New("no text layer, OCR required")
)

// pdfTextConfidence is assigned to text read from an embedded PDF text layer
const pdfTextConfidence = 0.95

// Loaded is a document read from disk. Fields is set only for
// pre-extracted field files (.json, .yaml), which skip extraction.
type Loaded struct {
	Document model.Document
	Fields   *model.ClaimFields
}

// Loader reads claim documents from the local filesystem
type Loader struct {
	maxBytes       int64
	allowed        map[string]bool
	textConfidence float64
}

// NewLoader creates a loader from extraction settings
func NewLoader(cfg model.ExtractionConfig) *Loader {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	conf := cfg.TextConfidence
	if conf <= 0 || conf > 1 {
		conf = 0.8
	}
	return &Loader{
		maxBytes:       cfg.MaxFileBytes,
		allowed:        allowed,
		textConfidence: conf,
	}
}

// Load reads path and returns its text or field map
func (l *Loader) Load(path string) (*Loaded, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !l.allowed[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, info.Size(), l.maxBytes)
	}

	doc := model.Document{Path: path, SizeBytes: info.Size()}

	switch ext {
	case "json", "yaml", "yml":
		fields, err := LoadFields(path)
		if err != nil {
			return nil, err
		}
		doc.Kind = model.DocumentKindFields
		doc.Confidence = 1.0
		return &Loaded{Document: doc, Fields: &fields}, nil

	case "pdf":
		text, pages, err := readPDF(path)
		if err != nil {
			return nil, err
		}
		doc.Kind = model.DocumentKindPDF
		doc.Text = text
		doc.Pages = pages
		doc.Confidence = pdfTextConfidence

	case "hocr", "html", "htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open document: %w", err)
		}
		defer func() { _ = f.Close() }()

		ocr, err := extract.ParseHOCR(f)
		if err != nil {
			return nil, fmt.Errorf("parse hOCR: %w", err)
		}
		doc.Kind = model.DocumentKindHOCR
		doc.Text = ocr.Text
		doc.Pages = ocr.Pages
		doc.Confidence = ocr.Confidence
		if ocr.Words == 0 {
			doc.Confidence = l.textConfidence
		}

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		doc.Kind = model.DocumentKindText
		doc.Text = string(data)
		doc.Pages = 1
		doc.Confidence = l.textConfidence
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoText)
	}
	return &Loaded{Document: doc}, nil
}

// readPDF concatenates the embedded text of every page
func readPDF(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", pages, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}

// LoadFields decodes a JSON or YAML object of claim fields
func LoadFields(path string) (model.ClaimFields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ClaimFields{}, fmt.Errorf("read claim file: %w", err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return model.ClaimFields{}, fmt.Errorf("decode claim yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return model.ClaimFields{}, fmt.Errorf("decode claim json: %w", err)
		}
		for k, v := range raw {
			if n, ok := v.(json.Number); ok {
				raw[k] = numberValue(n)
			}
		}
	}
	if raw == nil {
		return model.ClaimFields{}, fmt.Errorf("claim file %s does not contain an object", filepath.Base(path))
	}

	for k, v := range raw {
		if t, ok := v.(time.Time); ok {
			raw[k] = t.Format(model.DateLayoutISO)
		}
	}
	return model.FromMap(raw), nil
}

// numberValue keeps integers as int64 so vehicle_year stays whole
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
