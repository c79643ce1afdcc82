// Package validate holds the pure pre-dispatch checks: recipient number
// format and carrier credential completeness. Nothing here touches the
// network, and nothing is cached; callers rerun these before every dispatch.
package validate

import (
	"errors"
	"strings"

	"github.com/jask/wamsg/internal/carrier"
)

// ChannelTag is the prefix Twilio requires on both sender and recipient
// addresses for the WhatsApp channel.
const ChannelTag = "whatsapp:"

var (
	ErrRecipientEmpty     = errors.New("recipient number is empty")
	ErrMissingCountryCode = errors.New("recipient number must be in E.164 format starting with '+', e.g. +15551234567")
	ErrMissingAccountSID  = errors.New("missing Twilio Account SID")
	ErrMissingAuthToken   = errors.New("missing Twilio Auth Token")
	ErrMissingSender      = errors.New("missing Twilio WhatsApp From address")
	ErrSenderNotWhatsApp  = errors.New("Twilio From address must start with 'whatsapp:'")
)

// Recipient trims raw and returns it prefixed with the WhatsApp channel tag.
// An already-tagged value passes through unchanged, so normalization is
// idempotent.
func Recipient(raw string) (string, error) {
	num := strings.TrimSpace(raw)
	if num == "" {
		return "", ErrRecipientEmpty
	}
	if strings.HasPrefix(num, ChannelTag) {
		return num, nil
	}
	if !strings.HasPrefix(num, "+") {
		return "", ErrMissingCountryCode
	}
	return ChannelTag + num, nil
}

// CarrierConfig checks credential completeness before any dispatch attempt.
// It reports every missing field, not just the first.
func CarrierConfig(creds carrier.Credentials) error {
	var errs []error
	if strings.TrimSpace(creds.AccountSID) == "" {
		errs = append(errs, ErrMissingAccountSID)
	}
	if strings.TrimSpace(creds.AuthToken) == "" {
		errs = append(errs, ErrMissingAuthToken)
	}
	from := strings.TrimSpace(creds.From)
	if from == "" {
		errs = append(errs, ErrMissingSender)
	} else if !strings.HasPrefix(from, ChannelTag) {
		errs = append(errs, ErrSenderNotWhatsApp)
	}
	return errors.Join(errs...)
}
