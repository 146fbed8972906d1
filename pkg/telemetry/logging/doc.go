// Package logging configures the process-wide slog logger.
//
// Records are written as JSON or text. A ReplaceAttr hook masks credential
// values: attributes named like api_key, token or authorization, and any
// string that looks like an OpenAI key, a Telegram bot token or a bearer
// header. Records logged with a context carry the active trace and span ids.
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
package logging
