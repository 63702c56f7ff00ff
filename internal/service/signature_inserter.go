package service

import (
	"encoding/base64"
	"os"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/pdfform"
)

// SignatureInserter places signature images into the button fields of an
// agreement document. Each field is handled independently so a bad counter
// signature asset never blocks the reader's own signature.
type SignatureInserter struct {
	logger *zap.Logger
}

func NewSignatureInserter(logger *zap.Logger) *SignatureInserter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignatureInserter{logger: logger}
}

// SignatureInsertion names the image sources for a single document. Reader
// sources may be a base64 data URL from the signature pad or a path to an
// uploaded file; the counter signature is always a configured asset path.
type SignatureInsertion struct {
	ReaderData       string
	ReaderUploadPath string
	CounterAssetPath string
	CounterRequired  bool
}

// InsertionResult reports which fields actually received an image.
type InsertionResult struct {
	ReaderSigned  bool
	CounterSigned bool
}

func (si *SignatureInserter) Insert(doc *pdfform.Document, in SignatureInsertion) InsertionResult {
	var result InsertionResult

	readerBytes, err := si.resolveReader(in)
	if err != nil {
		si.logger.Warn("reader signature could not be resolved", zap.Error(err))
	} else if err := doc.SetImage(pdfform.FieldReaderSignature, readerBytes); err != nil {
		si.logger.Warn("reader signature rejected", zap.Error(err))
	} else {
		result.ReaderSigned = true
	}

	if in.CounterRequired {
		counterBytes, err := os.ReadFile(in.CounterAssetPath)
		if err != nil {
			si.logger.Warn("counter signature asset unavailable",
				zap.String("path", in.CounterAssetPath), zap.Error(err))
		} else if err := doc.SetImage(pdfform.FieldCounterSignature, counterBytes); err != nil {
			si.logger.Warn("counter signature rejected", zap.Error(err))
		} else {
			result.CounterSigned = true
		}
	}

	return result
}

// ReaderSignatureBytes resolves the reader source without touching a
// document, used when the raw payload must be archived alongside the PDF.
func (si *SignatureInserter) ReaderSignatureBytes(in SignatureInsertion) ([]byte, error) {
	return si.resolveReader(in)
}

func (si *SignatureInserter) resolveReader(in SignatureInsertion) ([]byte, error) {
	switch {
	case in.ReaderData != "":
		return decodeDataURL(in.ReaderData)
	case in.ReaderUploadPath != "":
		data, err := os.ReadFile(in.ReaderUploadPath)
		if err != nil {
			return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "uploaded signature could not be read")
		}
		return data, nil
	default:
		return nil, appErrors.New("VALIDATION_ERROR", 400, "no signature source provided")
	}
}

// decodeDataURL accepts "data:image/png;base64,..." payloads as produced by
// canvas signature pads, or a bare base64 string.
func decodeDataURL(src string) ([]byte, error) {
	payload := src
	if strings.HasPrefix(src, "data:") {
		idx := strings.Index(src, ",")
		if idx < 0 {
			return nil, appErrors.New("VALIDATION_ERROR", 400, "malformed signature data URL")
		}
		payload = src[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "signature payload is not valid base64")
	}
	if len(data) == 0 {
		return nil, appErrors.New("VALIDATION_ERROR", 400, "signature payload is empty")
	}
	return data, nil
}
