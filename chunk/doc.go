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


// Package chunk splits extracted document text into overlapping chunks
// suitable for embedding.
//
// Two strategies are provided:
//
//   - fixed: a sliding window of Size characters advancing by Size-Overlap,
//     the cheap fallback for unstructured text.
//   - semantic: paragraphs are accumulated up to Size characters, oversized
//     paragraphs are further split on sentence boundaries, and each new chunk
//     is seeded with the last Overlap characters of the previous one. This
//     avoids fracturing sentences mid-word, which improves embedding quality.
//
// Overlap exists so retrieval does not miss matches that straddle a chunk
// boundary. All sizes and offsets are counted in runes, not bytes.
package chunk
