// Package providers defines the completion-provider contract used by the relay
// and the shared HTTP plumbing for provider adapters.
//
// # Architecture
//
//  1. Provider interface: one synchronous SendCompletion call
//  2. HTTPProvider: connection pooling, timeouts and failure classification
//  3. Adapters: openai (any OpenAI-compatible chat completions endpoint)
//
// # Errors
//
// Every failure is a typed error so callers can classify it with errors.As:
//
//   - *AuthError: HTTP 401/403 or an unavailable credential
//   - *RateLimitError: HTTP 429, with RetryAfter when the provider sent one
//   - *TimeoutError: client timeout or caller deadline
//   - *ParseError: undecodable or empty response
//   - *ProviderError: any other non-2xx status or transport failure
//   - *ValidationError: the request was rejected before sending
//   - *ConfigError: the adapter could not be constructed
//
// # Retries
//
// None. A request is sent once; a retried completion could be billed twice
// and could produce a duplicate reply in the conversation.
//
// # Credentials
//
// ProviderConfig.Credentials is consulted on every request, so a credential
// backed by a watched secret file rotates without a restart. StaticCredential
// wraps a fixed key.
package providers
