// Copyright 2025 Poiesic Systems
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


// Package ingestion writes tenant content into the embedding store.
//
// The Indexer is the single write path: it validates a record, generates
// its embedding when one is missing, and hands it to the repository. A
// provider failure surfaces as ErrEmbeddingUnavailable and leaves nothing
// behind; embedding generation is best-effort by contract and the source
// record in the calling application stays authoritative.
//
// Free-form context text takes a different route: StoreContext splits it
// into paragraph chunks, embeds the batch, and replaces the scope's prior
// fragments in one pass.
package ingestion
