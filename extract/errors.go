package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates no extractor is registered for the
	// document's MIME type.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUnreadable indicates the underlying file could not be read.
	ErrUnreadable = errors.New("document is unreadable")

	// ErrEmptyDocument indicates extraction produced no text.
	ErrEmptyDocument = errors.New("no text extracted from document")
)
