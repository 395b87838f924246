package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// BookType identifies which reader surface a book is opened in.
// It decides how session locations are interpreted downstream.
type BookType string

const (
	// BookTypePDF is a paged PDF document. Locations are page numbers.
	BookTypePDF BookType = "PDF"
	// BookTypeEPUB is a reflowable EPUB. Locations are document-internal position strings.
	BookTypeEPUB BookType = "EPUB"
	// BookTypeCBX is a comic archive (cbz, cbr, cb7, cbt). Locations are page numbers.
	BookTypeCBX BookType = "CBX"
)

// ErrUnknownBookType is returned when a name or file extension maps to no book type.
var ErrUnknownBookType = errors.New("unknown book type")

// BookTypes lists every supported book type.
var BookTypes = []BookType{BookTypePDF, BookTypeEPUB, BookTypeCBX}

// IsValid reports whether t is one of the supported book types.
func (t BookType) IsValid() bool {
	switch t {
	case BookTypePDF, BookTypeEPUB, BookTypeCBX:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t BookType) String() string {
	return string(t)
}

// ParseBookType parses a book type case-insensitively.
func ParseBookType(s string) (BookType, error) {
	t := BookType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w %q", ErrUnknownBookType, s)
	}
	return t, nil
}

// BookTypeFromPath infers the book type from a file extension.
func BookTypeFromPath(path string) (BookType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return BookTypePDF, nil
	case ".epub":
		return BookTypeEPUB, nil
	case ".cbz", ".cbr", ".cb7", ".cbt":
		return BookTypeCBX, nil
	default:
		return "", fmt.Errorf("%w for %q", ErrUnknownBookType, filepath.Base(path))
	}
}
