package pdfform

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known signature field names on the NDA form.
const (
	FieldReaderSignature  = "reader_signature"
	FieldCounterSignature = "counter_signature"
)

// Template describes a versioned NDA layout loaded from the template store.
type Template struct {
	Version         string   `json:"version"`
	Title           string   `json:"title"`
	Clauses         []string `json:"clauses"`
	CounterRequired bool     `json:"counter_required"`
}

// ParseTemplate decodes a stored template file.
func ParseTemplate(data []byte) (*Template, error) {
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse nda template: %w", err)
	}
	if tpl.Title == "" || len(tpl.Clauses) == 0 {
		return nil, fmt.Errorf("nda template missing title or clauses")
	}
	return &tpl, nil
}

// FieldKind distinguishes text fields from button-style signature fields.
type FieldKind string

const (
	FieldText      FieldKind = "text"
	FieldSignature FieldKind = "signature"
)

// Field is a single interactive form field on the document.
type Field struct {
	Name      string
	Kind      FieldKind
	Label     string
	Value     string
	Image     []byte
	ImageType string
}

// Document is an in-memory NDA form: a header, body clauses and a fixed set
// of named fields, two of which are signature fields. It renders to PDF
// bytes and supports flattening of field appearances into page content.
type Document struct {
	Title   string
	Clauses []string

	fields    []*Field
	index     map[string]*Field
	flattened bool
}

// NewDocument builds the standard NDA field set for a template.
func NewDocument(tpl *Template) *Document {
	d := &Document{
		Title:   tpl.Title,
		Clauses: append([]string(nil), tpl.Clauses...),
		index:   make(map[string]*Field),
	}
	d.addField(&Field{Name: "reader_name", Kind: FieldText, Label: "Reader"})
	d.addField(&Field{Name: "reader_pin", Kind: FieldText, Label: "Reader PIN"})
	d.addField(&Field{Name: "nda_version", Kind: FieldText, Label: "Agreement Version", Value: tpl.Version})
	d.addField(&Field{Name: "signed_date", Kind: FieldText, Label: "Date"})
	d.addField(&Field{Name: FieldReaderSignature, Kind: FieldSignature, Label: "Reader Signature"})
	d.addField(&Field{Name: FieldCounterSignature, Kind: FieldSignature, Label: "Countersigned"})
	return d
}

func (d *Document) addField(f *Field) {
	d.fields = append(d.fields, f)
	d.index[f.Name] = f
}

// Field returns a named form field.
func (d *Document) Field(name string) (*Field, bool) {
	f, ok := d.index[name]
	return f, ok
}

// SetValue fills a text field.
func (d *Document) SetValue(name, value string) error {
	if d.flattened {
		return fmt.Errorf("document is flattened")
	}
	f, ok := d.index[name]
	if !ok || f.Kind != FieldText {
		return fmt.Errorf("no text field %q", name)
	}
	f.Value = value
	return nil
}

// SetImage sets the visual appearance of a button-style signature field.
// The image type is sniffed from the payload; only PNG and JPEG are accepted.
func (d *Document) SetImage(name string, image []byte) error {
	if d.flattened {
		return fmt.Errorf("document is flattened")
	}
	f, ok := d.index[name]
	if !ok || f.Kind != FieldSignature {
		return fmt.Errorf("no signature field %q", name)
	}
	imgType, err := sniffImageType(image)
	if err != nil {
		return err
	}
	f.Image = image
	f.ImageType = imgType
	return nil
}

// Flatten bakes current field values and appearances into static page
// content and removes interactivity. Flattening twice is a no-op.
func (d *Document) Flatten() {
	if d.flattened {
		return
	}
	d.flattened = true
}

// Flattened reports whether the document has been flattened.
func (d *Document) Flattened() bool {
	return d.flattened
}

func sniffImageType(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "JPEG", nil
	default:
		return "", fmt.Errorf("unsupported image format")
	}
}
