package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"pending", "approved", "rejected"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err)
		require.Equal(t, Status(raw), status)
	}

	_, err := ParseStatus("archived")
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = ParseStatus("")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestPresentationStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status   Status
		label    string
		severity Severity
	}{
		{StatusPending, "under review", SeverityWarning},
		{StatusApproved, "approved", SeveritySuccess},
		{StatusRejected, "rejected", SeverityError},
	}

	for _, tc := range cases {
		presentation, err := PresentationStatus(tc.status)
		require.NoError(t, err)
		require.Equal(t, tc.label, presentation.Label)
		require.Equal(t, tc.severity, presentation.Severity)
	}

	_, err := PresentationStatus(Status("draft"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestPaymentPromptRequired(t *testing.T) {
	t.Parallel()

	fee := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}

	cases := []struct {
		name   string
		status Status
		fee    *decimal.Decimal
		want   bool
	}{
		{"pending with positive fee", StatusPending, fee("500"), true},
		{"pending with fractional fee", StatusPending, fee("0.50"), true},
		{"pending with zero fee", StatusPending, fee("0"), false},
		{"pending with nil fee", StatusPending, nil, false},
		{"approved with positive fee", StatusApproved, fee("500"), false},
		{"rejected with positive fee", StatusRejected, fee("500"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, PaymentPromptRequired(tc.status, tc.fee))
		})
	}
}

func TestTransferEligible(t *testing.T) {
	t.Parallel()

	require.True(t, TransferEligible(StatusPending))
	require.True(t, TransferEligible(StatusApproved))
	require.False(t, TransferEligible(StatusRejected))
	require.False(t, TransferEligible(Status("archived")))
}
