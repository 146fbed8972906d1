// Package cli holds helpers shared by the relay commands: exit codes,
// signal handling and table/JSON/CSV output.
package cli
