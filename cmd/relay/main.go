// Relay is a chat relay that answers messages with an OpenAI-compatible
// completion model.
//
// Each conversation keeps a short rolling history. Automated replies are
// switched on and off per conversation (or per participant, or globally)
// with the /enable, /disable, /toggle and /status commands, and every
// answered exchange is appended to a SQLite ledger.
//
// Usage:
//
//	# Start with environment configuration only
//	TELEGRAM_TOKEN=... OPENAI_TOKEN=... relay run
//
//	# Start with a configuration file
//	relay run --config /etc/relay/relay.yaml
//
//	# List recent exchanges
//	relay ledger list --conversation 123456 --since 24h
//
//	# Inspect or change a reply switch
//	relay gate status conversation:123456
//	relay gate set conversation:123456 on
package main

func main() {
	Execute()
}
