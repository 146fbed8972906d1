// Package health provides liveness and readiness probes.
//
// Liveness (/health) only reports that the process is serving. Readiness
// (/ready) runs every registered check concurrently, each under its own
// timeout, and answers 503 when any of them fails. The relay registers the
// ledger store ping and the completion provider's recent request health.
package health
