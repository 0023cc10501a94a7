package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(timeout time.Duration) *LookupService {
	return NewLookupService(timeout, zerolog.Nop())
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "9876543210", r.URL.Query().Get("num"))
		w.Write([]byte("OK:Name=Test"))
	}))
	defer srv.Close()

	svc := newTestService(5 * time.Second)
	body, err := svc.Fetch(context.Background(), srv.URL+"/api?num=%s", "9876543210")
	require.NoError(t, err)
	require.Equal(t, "OK:Name=Test", body)
}

func TestFetchEscapesArgument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "a b&c", r.URL.Query().Get("q"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	svc := newTestService(5 * time.Second)
	_, err := svc.Fetch(context.Background(), srv.URL+"/?q=%s", "a b&c")
	require.NoError(t, err)
}

func TestFetchNon200YieldsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(5 * time.Second)
	_, err := svc.Fetch(context.Background(), srv.URL+"/?q=%s", "x")

	var statusErr *UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 500, statusErr.Status)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	svc := newTestService(50 * time.Millisecond)
	_, err := svc.Fetch(context.Background(), srv.URL+"/?q=%s", "x")
	require.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestFetchTransportError(t *testing.T) {
	// Closed server: connection refused is a transport error, not a timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	svc := newTestService(5 * time.Second)
	_, err := svc.Fetch(context.Background(), url+"/?q=%s", "x")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.NotErrorIs(t, err, ErrUpstreamTimeout)
}

func TestFetchJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	svc := newTestService(5 * time.Second)
	_, err := svc.FetchJSON(context.Background(), srv.URL+"/?q=%s", "x")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestIFSCFallbackOnPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"BANK":"State Bank of India","IFSC":"SBIN0000001"}`))
	}))
	defer fallback.Close()

	svc := newTestService(5 * time.Second)
	svc.ifscTemplates = []string{primary.URL + "/%s", fallback.URL + "/%s"}

	fields, err := svc.IFSCInfo(context.Background(), "SBIN0000001")
	require.NoError(t, err)
	require.Equal(t, "State Bank of India", fields["BANK"])
}

func TestIFSCFallbackOnInvalidPrimaryPayload(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IFSC":"SBIN0000001"}`)) // no bank name
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"BANK":"State Bank of India"}`))
	}))
	defer fallback.Close()

	svc := newTestService(5 * time.Second)
	svc.ifscTemplates = []string{primary.URL + "/%s", fallback.URL + "/%s"}

	fields, err := svc.IFSCInfo(context.Background(), "SBIN0000001")
	require.NoError(t, err)
	require.Equal(t, "State Bank of India", fields["BANK"])
}

func TestIFSCBothEndpointsFail(t *testing.T) {
	var fallbackCalls int

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer fallback.Close()

	svc := newTestService(5 * time.Second)
	svc.ifscTemplates = []string{primary.URL + "/%s", fallback.URL + "/%s"}

	_, err := svc.IFSCInfo(context.Background(), "SBIN0000001")
	var statusErr *UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	// Exactly one fallback attempt, not a retry loop.
	require.Equal(t, 1, fallbackCalls)
}

func TestParseUPIKnownProvider(t *testing.T) {
	info, err := ParseUPI("sam@okhdfcbank")
	require.NoError(t, err)
	require.Equal(t, "OKHDFCBANK", info.ProviderCode)
	require.Equal(t, "HDFC Bank", info.ProviderName)
	require.Equal(t, "sam@okhdfcbank", info.ID)
}

func TestParseUPIUnknownProviderFallsBackToCode(t *testing.T) {
	info, err := ParseUPI("sam@somebank")
	require.NoError(t, err)
	require.Equal(t, "SOMEBANK", info.ProviderCode)
	require.Equal(t, "SOMEBANK", info.ProviderName)
}

func TestParseUPIWithoutAtIsInvalid(t *testing.T) {
	_, err := ParseUPI("noatsign")
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseUPI("trailing@")
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseUPILowercasesID(t *testing.T) {
	info, err := ParseUPI("  Sam@YBL ")
	require.NoError(t, err)
	require.Equal(t, "sam@ybl", info.ID)
	require.Equal(t, "Yes Bank", info.ProviderName)
}

// The end-to-end path a group caller takes: gate, fetch, render.
func TestAuthorizedLookupFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK:Name=Test"))
	}))
	defer srv.Close()

	auth := NewAuthService(ownerID, allowset{555: {}}, fakeMembership(true), true, true, zerolog.Nop())
	decision := auth.Check(context.Background(), 555, ChatGroup)
	require.True(t, decision.Allowed)

	svc := newTestService(5 * time.Second)
	body, err := svc.Fetch(context.Background(), srv.URL+"/api?num=%s", "9876543210")
	require.NoError(t, err)

	reply := NewFormatService().Raw(body)
	require.Equal(t, "OK:Name=Test"+Footer, reply)
}

func TestFetchNeverPanicsOnBadTemplate(t *testing.T) {
	svc := newTestService(time.Second)
	_, err := svc.Fetch(context.Background(), "http://[badhost/%s", "x")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUpstreamTimeout) || isTyped(err))
}

func isTyped(err error) bool {
	var statusErr *UpstreamStatusError
	var transportErr *TransportError
	return errors.As(err, &statusErr) || errors.As(err, &transportErr)
}
