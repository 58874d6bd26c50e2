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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptySourceRef indicates the SourceRef field is empty.
	ErrEmptySourceRef = errors.New("source ref cannot be empty")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrNegativeRetryCount indicates a retry count below zero.
	ErrNegativeRetryCount = errors.New("retry count cannot be negative")

	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptyEntryID indicates the entry Id field is empty.
	ErrEmptyEntryID = errors.New("entry id cannot be empty")

	// ErrEmptyVector indicates an entry has no embedding vector.
	ErrEmptyVector = errors.New("entry vector cannot be empty")
)
