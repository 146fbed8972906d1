// Package telegram is the Telegram Bot API transport.
//
// Each chat is one conversation and each sender is a principal. Updates
// are received by long polling; replies are sent as plain messages to the
// originating chat.
package telegram
