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


// Package ai provides the embedding abstraction used by indexing and search.
//
// The core pipeline depends only on the Embedder interface; the ai/openai
// subpackage implements it against OpenAI-compatible APIs (Ollama, LocalAI,
// vLLM, OpenAI itself) and ai/mock provides deterministic test doubles.
//
// Public constructors in implementation packages return interface types to
// enforce abstraction; mock constructors return concrete types so tests can
// inject behavior and make assertions.
package ai
