// Package ai defines the abstraction over external embedding services.
//
// The vector index build and search paths depend only on the Embedder
// interface, never on a concrete client, so the provider can be swapped
// (or mocked in tests) without touching the indexing logic.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test double, no network
//
// Public constructors in ai/openai return the Embedder interface to keep
// callers decoupled from the concrete client; the mock constructor returns
// the concrete type so tests can inject behavior and assert call counts.
package ai
