package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator performs pre-flight checks on report files before they are opened
type Validator struct {
	maxFileSize int64
	conf        *model.Configuration
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &Validator{
		maxFileSize: maxFileSize,
		conf:        conf,
	}
}

// Validate checks that path is a readable PDF within the size limit. Any
// failure is returned as a *DecodeError.
func (v *Validator) Validate(path string) error {
	if path == "" {
		return &DecodeError{Path: path, Err: fmt.Errorf("path cannot be empty")}
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &DecodeError{Path: path, Err: fmt.Errorf("file does not exist")}
	}
	if err != nil {
		return &DecodeError{Path: path, Err: fmt.Errorf("cannot access file: %w", err)}
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return &DecodeError{Path: path, Err: err}
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		return &DecodeError{Path: path, Err: fmt.Errorf("invalid PDF file: %w", err)}
	}

	return nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !IsPDFName(filePath) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// IsPDFName reports whether the file name carries a .pdf extension
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
