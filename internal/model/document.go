package model

// DocumentKind classifies how a source file was read
type DocumentKind string

const (
	DocumentKindText   DocumentKind = "text"   // Plain OCR text
	DocumentKindHOCR   DocumentKind = "hocr"   // Tesseract hOCR output
	DocumentKindPDF    DocumentKind = "pdf"    // PDF with an embedded text layer
	DocumentKindFields DocumentKind = "fields" // Pre-extracted field map (JSON/YAML)
)

// Document is the OCR-stage view of a claim document: text plus confidence
type Document struct {
	Path       string       `json:"path"`
	Kind       DocumentKind `json:"kind"`
	Text       string       `json:"-"`
	Confidence float64      `json:"ocr_confidence"`
	Pages      int          `json:"pages,omitempty"`
	SizeBytes  int64        `json:"size_bytes"`
}

// DocumentType is the classified type of a claim document
type DocumentType string

const (
	DocInsuranceCard  DocumentType = "insurance_card"
	DocDriversLicense DocumentType = "drivers_license"
	DocAccidentReport DocumentType = "accident_report"
	DocPoliceReport   DocumentType = "police_report"
	DocMedicalReport  DocumentType = "medical_report"
	DocRepairEstimate DocumentType = "repair_estimate"
	DocOther          DocumentType = "other"
)

// Classification is the result of document type classification
type Classification struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
	Matched      []string     `json:"matched_terms,omitempty"`
}

// ExtractionMethod records which extractor produced the field set
type ExtractionMethod string

const (
	ExtractionLLM      ExtractionMethod = "llm"
	ExtractionFallback ExtractionMethod = "fallback"
	ExtractionCached   ExtractionMethod = "cache"
	ExtractionProvided ExtractionMethod = "provided"
)

// Extraction is the structured-but-unverified output of field extraction
type Extraction struct {
	Method     ExtractionMethod `json:"method"`
	Provider   string           `json:"provider,omitempty"`
	Model      string           `json:"model,omitempty"`
	Confidence float64          `json:"confidence"`
	Fields     ClaimFields      `json:"fields"`
	Warnings   []string         `json:"warnings,omitempty"`
}
