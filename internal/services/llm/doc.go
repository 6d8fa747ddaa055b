// Package llm implements a client for OpenAI-compatible chat completion
// APIs.
//
// The same client serves both hosted endpoints (api.openai.com) and local
// ones (Ollama's /v1 compatibility surface); only base URL, key, and model
// differ. Requests are retried with exponential backoff on transient HTTP
// failures, honoring Retry-After. The sleeper is injectable so tests run
// without real delays.
package llm
