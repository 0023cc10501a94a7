package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// One fixed URL template per command kind; the single %s placeholder
// receives the query-escaped argument.
const (
	PhoneURLTemplate   = "https://usesirosint.vercel.app/api/numinfo?key=land&num=%s"
	AadhaarURLTemplate = "https://usesirosint.vercel.app/api/aadhar?key=land&aadhar=%s"
	VehicleURLTemplate = "https://usesirosint.vercel.app/api/rcnum?key=land&rc=%s"

	ifscURLTemplate         = "https://ifsc.razorpay.com/%s"
	ifscFallbackURLTemplate = "https://bank-apis.justinclicks.com/API/V1/IFSC/%s/"
)

const maxResponseBytes = 2 * 1024 * 1024

// LookupService issues one-shot GET requests against the fixed lookup
// endpoints. No retries: a slow upstream fails fast with a typed error.
type LookupService struct {
	httpClient *http.Client
	timeout    time.Duration
	// Candidate IFSC endpoints tried in order with an early-success
	// short-circuit; exactly one fallback.
	ifscTemplates []string
	log           zerolog.Logger
}

func NewLookupService(timeout time.Duration, log zerolog.Logger) *LookupService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LookupService{
		httpClient:    &http.Client{Timeout: timeout},
		timeout:       timeout,
		ifscTemplates: []string{ifscURLTemplate, ifscFallbackURLTemplate},
		log:           log,
	}
}

// Fetch substitutes argument into urlTemplate and performs a single GET.
// Every failure path resolves to one of the typed errors in errors.go.
func (s *LookupService) Fetch(ctx context.Context, urlTemplate, argument string) (string, error) {
	target := fmt.Sprintf(urlTemplate, url.QueryEscape(argument))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", classifyTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamStatusError{Status: resp.StatusCode}
	}

	return string(body), nil
}

// FetchJSON is Fetch plus a JSON object parse. A 200 reply that does not
// parse downgrades to ErrMalformedResponse instead of failing the caller.
func (s *LookupService) FetchJSON(ctx context.Context, urlTemplate, argument string) (map[string]any, error) {
	body, err := s.Fetch(ctx, urlTemplate, argument)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fields, nil
}

// IFSCInfo resolves a bank code against the IFSC directory, falling back
// to the secondary endpoint when the primary fails or returns a reply
// without a bank name.
func (s *LookupService) IFSCInfo(ctx context.Context, code string) (map[string]any, error) {
	var lastErr error
	for _, template := range s.ifscTemplates {
		fields, err := s.FetchJSON(ctx, template, code)
		if err != nil {
			s.log.Debug().Err(err).Str("code", code).Msg("ifsc endpoint failed")
			lastErr = err
			continue
		}
		if bankName(fields) == "" {
			lastErr = fmt.Errorf("%w: missing bank name", ErrMalformedResponse)
			continue
		}
		return fields, nil
	}
	return nil, lastErr
}

func bankName(fields map[string]any) string {
	name, _ := fields["BANK"].(string)
	return strings.TrimSpace(name)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrUpstreamTimeout
	}
	return &TransportError{Err: err}
}

// UPIInfo is the locally derived description of a UPI handle.
type UPIInfo struct {
	ID           string
	ProviderCode string
	ProviderName string
}

// Static provider-code table; unknown codes fall back to the code itself.
var upiProviders = map[string]string{
	"OKHDFC":     "HDFC Bank",
	"OKHDFCBANK": "HDFC Bank",
	"OKICICI":    "ICICI Bank",
	"OKSBI":      "State Bank of India",
	"OKAXIS":     "Axis Bank",
	"YBL":        "Yes Bank",
	"PAYTM":      "Paytm Payments Bank",
	"IBL":        "IDBI Bank",
	"AXL":        "Axis Bank",
	"APL":        "Amazon Pay",
	"UPI":        "Generic UPI",
}

// ParseUPI splits a UPI id on its "@" delimiter and resolves the provider
// code. No network involved.
func ParseUPI(id string) (UPIInfo, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	at := strings.LastIndex(id, "@")
	if at < 0 {
		return UPIInfo{}, ErrInvalidFormat
	}

	code := strings.ToUpper(id[at+1:])
	if code == "" {
		return UPIInfo{}, ErrInvalidFormat
	}

	name, ok := upiProviders[code]
	if !ok {
		name = code
	}

	return UPIInfo{ID: id, ProviderCode: code, ProviderName: name}, nil
}
