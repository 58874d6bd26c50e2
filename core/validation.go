// Copyright 2025 Inkwell Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// MaxErrorMessageLen bounds the length of Document.ErrorMessage in runes.
// Messages are truncated on rune boundaries, never mid-character.
const MaxErrorMessageLen = 1000

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - SourceRef must not be empty
//   - Status must be a known DocumentStatus
//   - RetryCount must not be negative
//
// NOT validated (populated by the state machine):
//   - ChunkCount, IndexedAt (set on completion)
//   - ErrorMessage (set on failure)
//   - ID (0 is valid before the ledger assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.SourceRef == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceRef)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.RetryCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrNegativeRetryCount)
	}

	return nil
}

// ValidateEntry validates an IndexEntry before it is stored.
func ValidateEntry(entry *IndexEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyEntryID)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyVector)
	}

	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// TruncateMessage bounds a message to limit runes, cutting on rune boundaries.
func TruncateMessage(msg string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(msg)
	if len(runes) <= limit {
		return msg
	}
	return string(runes[:limit])
}
