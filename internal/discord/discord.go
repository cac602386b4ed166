package discord

import "errors"

var ErrChannelNotFound = errors.New("discord channel not found")

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

// Client posts run results to a text channel.
type Client interface {
	Enabled() bool
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	ChannelName(channelID string) string
	Close() error
}
