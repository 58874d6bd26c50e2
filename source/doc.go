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


// Package source resolves opaque document references to readable files.
//
// The ledger stores only a sourceRef per document; the upload collaborator
// owns physical storage. A Resolver turns that reference into a local path
// plus the display name, MIME type, and upload timestamp the indexing
// pipeline needs. DirResolver serves files rooted in a storage directory;
// StaticResolver backs tests.
package source
