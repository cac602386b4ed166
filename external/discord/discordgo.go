package discord

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/jimakun/internal/discord"
)

const srtContentType = "application/x-subrip"

// Client talks to the Discord REST API only; it never opens a gateway
// connection.
type Client struct {
	session *discordgo.Session
}

func NewClient(token string) (discordpkg.Client, error) {
	if token == "" {
		return noopClient{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Client{session: s}, nil
}

func (c *Client) Enabled() bool {
	return true
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content)
	return classifyRESTError(channelID, err)
}

func (c *Client) SendChannelMessageWithFile(msg discordpkg.FileMessage) error {
	_, err := c.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files: []*discordgo.File{
			{Name: msg.Filename, ContentType: srtContentType, Reader: bytes.NewReader(msg.FileBody)},
		},
	})
	return classifyRESTError(msg.ChannelID, err)
}

// ChannelName returns the channel's name, or the id when it cannot be
// resolved.
func (c *Client) ChannelName(channelID string) string {
	if ch := c.resolveChannel(channelID); ch != nil {
		return ch.Name
	}
	return channelID
}

func (c *Client) resolveChannel(channelID string) *discordgo.Channel {
	if c.session == nil {
		return nil
	}
	if c.session.State != nil {
		channel, err := c.session.State.Channel(channelID)
		if err == nil && channel != nil && channel.Name != "" {
			return channel
		}
	}
	channel, err := c.session.Channel(channelID)
	if err != nil || channel == nil || channel.Name == "" {
		return nil
	}
	return channel
}

func classifyRESTError(channelID string, err error) error {
	if err == nil {
		return nil
	}
	if isRESTNotFound(err) {
		return fmt.Errorf("%w: %s", discordpkg.ErrChannelNotFound, channelID)
	}
	return err
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

type noopClient struct{}

func (noopClient) Enabled() bool { return false }

func (noopClient) SendChannelMessage(string, string) error { return nil }

func (noopClient) SendChannelMessageWithFile(discordpkg.FileMessage) error { return nil }

func (noopClient) ChannelName(channelID string) string { return channelID }

func (noopClient) Close() error { return nil }
