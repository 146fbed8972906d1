// Package tls serves the relay's HTTP endpoints over TLS with a
// certificate that is reloaded from disk when it is renewed.
package tls
