package notification

import (
	"fmt"

	"github.com/slack-go/slack"
)

// SlackConfig holds the configuration for posting ops alerts to Slack.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// SlackClient posts job-failure/cancellation alerts to a fixed channel.
type SlackClient struct {
	config *SlackConfig
	client *slack.Client
}

func NewSlackClient(config *SlackConfig) *SlackClient {
	if config == nil {
		config = &SlackConfig{}
	}
	c := &SlackClient{config: config}
	if c.IsConfigured() {
		c.client = slack.New(config.BotToken)
	}
	return c
}

func (c *SlackClient) IsConfigured() bool {
	return c.config != nil && c.config.BotToken != "" && c.config.Channel != ""
}

// PostAlert sends text to the configured channel with a job_id attached as
// context, prefixed "[Component] message" for quick scanning in the feed.
func (c *SlackClient) PostAlert(jobID, text string) error {
	if !c.IsConfigured() {
		return ErrSlackNotConfigured
	}
	_, _, err := c.client.PostMessage(c.config.Channel, slack.MsgOptionText(fmt.Sprintf("[casugen] job %s: %s", jobID, text), false))
	return err
}
