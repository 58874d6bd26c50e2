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


// Package extract turns stored files into plain text for chunking.
//
// Extraction is a pluggable capability: a Registry maps MIME types to
// Extractor implementations, so new formats can be supported without
// touching the indexing pipeline. The package ships a plain-text extractor
// for text/* types and a best-effort PDF extractor built on pdfcpu.
//
// A registry built with WithFallback treats unknown MIME types as plain
// text, matching the permissive behavior useful for ad-hoc corpora.
// Without a fallback, unknown types fail with ErrUnsupportedFormat.
package extract
