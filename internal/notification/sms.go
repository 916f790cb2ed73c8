package notification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	ErrTwilioNotConfigured = errors.New("twilio not configured")
	ErrSlackNotConfigured  = errors.New("slack not configured")
	ErrSMSSendFailed       = errors.New("failed to send SMS")
	ErrSMSRateLimited      = errors.New("SMS rate limited")
)

// SMSConfig holds the Twilio configuration for paging on-call operators.
type SMSConfig struct {
	AccountSID      string
	AuthToken       string
	FromPhoneNumber string
	ToPhoneNumbers  []string
}

// SMSClient sends job-failure pages via Twilio.
type SMSClient struct {
	config *SMSConfig
	client *twilio.RestClient
}

func NewSMSClient(config *SMSConfig) *SMSClient {
	if config == nil {
		config = &SMSConfig{}
	}
	c := &SMSClient{config: config}
	if c.IsConfigured() {
		c.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: config.AccountSID,
			Password: config.AuthToken,
		})
	}
	return c
}

// NewSMSClientFromEnv builds a client from TWILIO_* environment variables.
func NewSMSClientFromEnv() *SMSClient {
	return NewSMSClient(&SMSConfig{
		AccountSID:      os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:       os.Getenv("TWILIO_AUTH_TOKEN"),
		FromPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
	})
}

func (c *SMSClient) IsConfigured() bool {
	return c.config != nil && c.config.AccountSID != "" && c.config.AuthToken != "" && c.config.FromPhoneNumber != ""
}

// PageOnCall sends message to every configured on-call number.
func (c *SMSClient) PageOnCall(ctx context.Context, message string) error {
	if !c.IsConfigured() {
		return ErrTwilioNotConfigured
	}
	var firstErr error
	for _, to := range c.config.ToPhoneNumbers {
		if err := c.sendOne(to, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *SMSClient) sendOne(to, message string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.config.FromPhoneNumber)
	params.SetBody(message)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		if strings.Contains(err.Error(), "14107") || strings.Contains(err.Error(), "rate") {
			return fmt.Errorf("%w: %v", ErrSMSRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrSMSSendFailed, err)
	}
	return nil
}

// BuildAlertMessage builds a short page for a failed or cancelled job,
// capped to 160 characters to avoid SMS fragmentation.
func BuildAlertMessage(jobID, status, detail string) string {
	msg := fmt.Sprintf("[casugen] job %s %s: %s", jobID, status, detail)
	if len(msg) > 160 {
		msg = msg[:157] + "..."
	}
	return msg
}
