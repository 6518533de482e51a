package constants

import "strings"

// DocumentType is the supported-type allowlist for the document_type field.
type DocumentType string

const (
	PDF  DocumentType = "PDF"
	DOCX DocumentType = "DOCX"
	JPG  DocumentType = "JPG"
	PNG  DocumentType = "PNG"
)

// DocumentTypes holds the allowed document types in display order.
var DocumentTypes = []DocumentType{PDF, DOCX, JPG, PNG}

// AllowedExtensions holds the default allowed file extensions for uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToType maps a normalized extension to its document type,
// or "" when the extension is not allowlisted.
func MapExtToType(ext string) DocumentType {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "jpg", "jpeg":
		return JPG
	case "png":
		return PNG
	}
	return ""
}

// ValidDocumentType reports whether s is in the supported-type allowlist.
func ValidDocumentType(s string) bool {
	switch DocumentType(s) {
	case PDF, DOCX, JPG, PNG:
		return true
	}
	return false
}
