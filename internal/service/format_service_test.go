package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawAppendsFooter(t *testing.T) {
	out := NewFormatService().Raw("OK:Name=Test\n")
	require.Equal(t, "OK:Name=Test"+Footer, out)
}

func TestVehicleSubstitutesMissingFields(t *testing.T) {
	out := NewFormatService().Vehicle(map[string]any{
		"owner_name": "Test Owner",
		"fuel_type":  "",
	})

	require.Contains(t, out, "• Owner: Test Owner")
	require.Contains(t, out, "• Fuel: not available")
	require.Contains(t, out, "• RC Number: not available")
	require.True(t, strings.HasSuffix(out, Footer))
}

func TestVehicleFieldOrderIsFixed(t *testing.T) {
	out := NewFormatService().Vehicle(map[string]any{
		"state":     "WB",
		"rc_number": "WB12AB1234",
	})

	require.Less(t, strings.Index(out, "RC Number"), strings.Index(out, "State"))
}

func TestIFSCRendersBooleansAndNumbers(t *testing.T) {
	out := NewFormatService().IFSC(map[string]any{
		"BANK": "State Bank of India",
		"UPI":  true,
		"MICR": float64(700002021),
	})

	require.Contains(t, out, "• Bank: State Bank of India")
	require.Contains(t, out, "• UPI Enabled: Yes")
	require.Contains(t, out, "• MICR: 700002021")
	require.Contains(t, out, "• Branch: not available")
}

func TestUPIRender(t *testing.T) {
	out := NewFormatService().UPI(UPIInfo{
		ID:           "sam@okhdfcbank",
		ProviderCode: "OKHDFCBANK",
		ProviderName: "HDFC Bank",
	})

	require.Contains(t, out, "• UPI ID: sam@okhdfcbank")
	require.Contains(t, out, "• Bank: HDFC Bank")
	require.True(t, strings.HasSuffix(out, Footer))
}

func TestErrorMessagesAreDistinctAndStable(t *testing.T) {
	f := NewFormatService()

	cases := []error{
		ErrInvalidFormat,
		ErrUpstreamTimeout,
		ErrMalformedResponse,
		&UpstreamStatusError{Status: 500},
		&TransportError{Err: errors.New("connection refused")},
	}

	seen := make(map[string]bool)
	for _, err := range cases {
		msg := f.Error(err, false)
		require.False(t, seen[msg], "duplicate message for %v", err)
		seen[msg] = true
		require.True(t, strings.HasSuffix(msg, Footer))
	}
}

func TestErrorHidesTransportDetailFromCallers(t *testing.T) {
	f := NewFormatService()
	err := &TransportError{Err: errors.New("dial tcp 10.0.0.1: connection refused")}

	require.NotContains(t, f.Error(err, false), "10.0.0.1")
	require.Contains(t, f.Error(err, true), "10.0.0.1")
}

func TestErrorStatusCodeSurfaces(t *testing.T) {
	msg := NewFormatService().Error(&UpstreamStatusError{Status: 503}, false)
	require.Contains(t, msg, "503")
}
