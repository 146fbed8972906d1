// Package security groups credential handling for the relay.
//
//   - secrets: ${secret:name} references resolved from the environment or
//     a watched directory of files
//   - auth: shared-token protection for the webhook endpoint
//   - tls: TLS for the HTTP server with certificate reload
package security
