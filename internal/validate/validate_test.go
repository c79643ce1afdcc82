package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/wamsg/internal/carrier"
)

func TestRecipientNormalization(t *testing.T) {
	t.Parallel()

	got, err := Recipient("+15551234567")
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+15551234567", got)

	// surrounding whitespace is trimmed before tagging
	got, err = Recipient("  +15551234567\n")
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+15551234567", got)

	// idempotent: re-normalizing a tagged value must not double-prefix
	again, err := Recipient(got)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestRecipientRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrRecipientEmpty},
		{"blank", "   ", ErrRecipientEmpty},
		{"no plus", "5551234567", ErrMissingCountryCode},
		{"local format", "0412 345 678", ErrMissingCountryCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Recipient(tc.raw)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCarrierConfigReportsAllMissingFields(t *testing.T) {
	t.Parallel()

	err := CarrierConfig(carrier.Credentials{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingAccountSID)
	require.ErrorIs(t, err, ErrMissingAuthToken)
	require.ErrorIs(t, err, ErrMissingSender)

	err = CarrierConfig(carrier.Credentials{AccountSID: "ACxxx"})
	require.NotErrorIs(t, err, ErrMissingAccountSID)
	require.ErrorIs(t, err, ErrMissingAuthToken)
	require.ErrorIs(t, err, ErrMissingSender)
}

func TestCarrierConfigSenderTag(t *testing.T) {
	t.Parallel()

	creds := carrier.Credentials{AccountSID: "ACxxx", AuthToken: "tok", From: "+14155238886"}
	require.ErrorIs(t, CarrierConfig(creds), ErrSenderNotWhatsApp)

	creds.From = "whatsapp:+14155238886"
	require.NoError(t, CarrierConfig(creds))
}
