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


// Package ai provides abstractions for the embedding services used by
// the vectorization pipeline.
//
// The Embedder interface decouples the pipeline from any particular
// embedding provider. Two implementations ship with the module:
//
//   - ai/workersai: Cloudflare Workers AI REST contract
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//
// ai/mock provides a deterministic test double.
//
// Public constructors (workersai.NewEmbedder, openai.NewEmbedder) return
// the ai.Embedder interface to enforce abstraction; mock constructors
// return concrete types so tests can inject behavior and assert on call
// counts.
package ai
