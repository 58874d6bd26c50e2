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


// Package storage provides the storage abstraction layer for scriba.
//
// This package defines repository interfaces that decouple storage
// implementation from the indexing pipeline. Two stores back the pipeline:
//
//   - DocumentLedger: the authoritative record of every document known to the
//     system and its position in the indexing state machine
//     (PENDING -> PROCESSING -> COMPLETED / FAILED)
//   - VectorStore: the searchable index of embedded chunks
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	ledger, err := badger.NewLedger(backend)  // returns storage.DocumentLedger
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access from
// multiple goroutines. ClaimPending in particular must never hand the same
// document to two workers.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
// Pass context.Background() for operations without specific timeout
// requirements.
package storage
