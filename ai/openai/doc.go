// Package openai implements the ai interfaces against any OpenAI-compatible
// embedding API (OpenAI, Ollama, LocalAI, vLLM, and similar).
//
// The Embedder wraps langchaingo's OpenAI client. One outbound network call
// is made per invocation; there is no caching layer and no retry logic here.
// Provider failures surface as errors wrapping ai.ErrProvider, and every
// returned vector is checked against the configured dimensionality.
package openai
