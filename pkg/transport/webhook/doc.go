// Package webhook is an HTTP transport: POST /v1/messages with a JSON
// event returns the handled result as JSON.
//
//	curl -s localhost:8080/v1/messages \
//	    -H 'Authorization: Bearer $TOKEN' \
//	    -d '{"conversation_id":"c1","display_name":"Ada","text":"Where is Paris?"}'
//
// Responses are 200 for every handled event, including gated messages
// (no reply) and provider failures (the failure reply and failure_kind).
// 409 means the conversation was busy under the reject policy.
package webhook
