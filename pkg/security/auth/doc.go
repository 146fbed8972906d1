// Package auth guards the webhook endpoint with a shared token.
//
// The expected token comes from a TokenSource, normally a secrets
// credential, and is compared in constant time.
package auth
