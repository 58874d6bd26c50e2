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


// Package indexer drives the asynchronous document indexing pipeline.
//
// A Pool of long-lived workers repeatedly claims batches of PENDING
// documents from the ledger; claiming flips them to PROCESSING atomically,
// so each document is owned by exactly one worker. The Processor then runs
// extract -> chunk -> embed -> store for each claimed document and records
// the outcome:
//
//   - success: entries upserted, document marked COMPLETED
//   - failure with retries left: document returned to PENDING (MarkRetry)
//   - failure with retries exhausted: document marked FAILED
//
// The retry decision is a pure function (Decide) over the retry count, kept
// separate from the ledger so it can be tested and reasoned about in
// isolation. StatsAggregator snapshots the whole system for operators.
package indexer
