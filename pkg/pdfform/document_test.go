package pdfform

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate() *Template {
	return &Template{
		Version: "1.0",
		Title:   "Confidentiality Agreement",
		Clauses: []string{"Keep all case material confidential.", "Access may be revoked."},
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, 4, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate([]byte(`{"version":"1.0","title":"NDA","clauses":["one"],"counter_required":true}`))
	require.NoError(t, err)
	assert.Equal(t, "NDA", tpl.Title)
	assert.True(t, tpl.CounterRequired)
}

func TestParseTemplateRejectsEmpty(t *testing.T) {
	_, err := ParseTemplate([]byte(`{"version":"1.0","title":"","clauses":[]}`))
	assert.Error(t, err)

	_, err = ParseTemplate([]byte(`not json`))
	assert.Error(t, err)
}

func TestSetValue(t *testing.T) {
	doc := NewDocument(testTemplate())

	require.NoError(t, doc.SetValue("reader_name", "Jordan Smith"))
	field, ok := doc.Field("reader_name")
	require.True(t, ok)
	assert.Equal(t, "Jordan Smith", field.Value)

	assert.Error(t, doc.SetValue("no_such_field", "x"))
	assert.Error(t, doc.SetValue(FieldReaderSignature, "not a text field"))
}

func TestSetImageSniffsFormat(t *testing.T) {
	doc := NewDocument(testTemplate())

	require.NoError(t, doc.SetImage(FieldReaderSignature, pngBytes(t)))
	field, _ := doc.Field(FieldReaderSignature)
	assert.Equal(t, "PNG", field.ImageType)

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)
	require.NoError(t, doc.SetImage(FieldCounterSignature, jpeg))
	field, _ = doc.Field(FieldCounterSignature)
	assert.Equal(t, "JPEG", field.ImageType)

	assert.Error(t, doc.SetImage(FieldReaderSignature, []byte("garbage")))
	assert.Error(t, doc.SetImage("reader_name", pngBytes(t)))
}

func TestFlattenLocksDocument(t *testing.T) {
	doc := NewDocument(testTemplate())
	require.NoError(t, doc.SetValue("reader_name", "Jordan Smith"))

	doc.Flatten()
	assert.True(t, doc.Flattened())

	assert.Error(t, doc.SetValue("reader_pin", "JS-100001"))
	assert.Error(t, doc.SetImage(FieldReaderSignature, pngBytes(t)))

	// Flattening twice is a no-op.
	doc.Flatten()
	assert.True(t, doc.Flattened())
}

func TestRenderProducesPDF(t *testing.T) {
	doc := NewDocument(testTemplate())
	require.NoError(t, doc.SetValue("reader_name", "Jordan Smith"))
	require.NoError(t, doc.SetValue("reader_pin", "JS-100001"))
	require.NoError(t, doc.SetImage(FieldReaderSignature, pngBytes(t)))

	data, err := doc.Render()
	require.NoError(t, err)
	require.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))

	// Rendering a flattened document also succeeds.
	doc.Flatten()
	flat, err := doc.Render()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(flat[:4]))
}
