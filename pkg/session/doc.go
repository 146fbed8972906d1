// Package session is the conversation session manager: it serializes events
// per conversation, consults the reply switch, keeps the rolling context
// window, assembles the prompt, calls the completion provider and records the
// exchange.
//
// Processing one plain-text event:
//
//  1. gate query for the event's scope key; disabled means no reply
//  2. user turn appended to the window (the oldest pair may be evicted)
//  3. prompt built from the persona, the history and the new text
//  4. one completion call under a deadline; on failure the user turn stays,
//     no assistant turn is added and nothing is recorded
//  5. assistant turn appended
//  6. ledger append; a failed write is logged and counted, the reply is
//     still delivered
//
// Gate commands skip steps 2 to 6.
//
// Windows are keyed by conversation id. The gate key depends on the
// deployment's consent.Scope.
package session
