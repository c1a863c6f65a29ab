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


// Package rebuild regenerates the embedding store from the source of truth.
//
// The store is disposable by contract: every record in it can be derived
// again from the application's own tables. The Sweeper walks a
// ContentSource tenant by tenant and replays each entity through the
// ingestion path, so a model change, a corrupted store, or a bulk import
// all recover with one sweep. Scheduling is left to the operator; the
// sweep is a single Run call wired to the CLI.
//
// Failures are tolerated per entity. The sweep logs them, counts them in
// the Report, and moves on.
package rebuild
