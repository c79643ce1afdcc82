package carrier

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Credentials identify a Twilio account and its WhatsApp-enabled sender.
type Credentials struct {
	AccountSID string
	AuthToken  string
	From       string // channel-tagged, e.g. whatsapp:+14155238886
}

// Dispatcher submits one message for delivery and reports the provider id.
// Implementations do not retry; the caller decides what to do with a failure.
type Dispatcher interface {
	Send(ctx context.Context, to, body string) (sid string, err error)
}

// TwilioDispatcher sends through Twilio's Messages endpoint. Construct one
// only after the credentials have passed validation; Send assumes both `to`
// and the sender are already channel-tagged.
type TwilioDispatcher struct {
	creds  Credentials
	client *twilio.RestClient
}

func NewTwilioDispatcher(creds Credentials) *TwilioDispatcher {
	creds.AccountSID = strings.TrimSpace(creds.AccountSID)
	creds.AuthToken = strings.TrimSpace(creds.AuthToken)
	creds.From = strings.TrimSpace(creds.From)
	return &TwilioDispatcher{
		creds: creds,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: creds.AccountSID,
			Password: creds.AuthToken,
		}),
	}
}

// From reports the configured sender address.
func (d *TwilioDispatcher) From() string { return d.creds.From }

// Send issues a single message-creation call. Carrier-side rejections
// (invalid number, unapproved template, rate limit) come back as errors with
// Twilio's own message text; nothing is considered sent unless a SID returns.
func (d *TwilioDispatcher) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(d.creds.From)
	params.SetTo(to)
	params.SetBody(body)

	msg, err := d.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: send: %w", err)
	}
	if msg.Sid == nil || *msg.Sid == "" {
		return "", fmt.Errorf("twilio: send accepted but no message sid returned")
	}
	return *msg.Sid, nil
}
