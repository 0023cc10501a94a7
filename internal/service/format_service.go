package service

import (
	"errors"
	"fmt"
	"strings"
)

// Footer is the fixed attribution appended to every lookup reply.
const Footer = "\n\n━━━━━━━━━━━━━━\nAPI by @amane_friends\nOwner @amane_friends"

const notAvailable = "not available"

type fieldSpec struct {
	key   string
	label string
}

// Fixed, ordered field sets for the structured lookups. Absent fields
// render as the literal placeholder.
var vehicleFields = []fieldSpec{
	{"rc_number", "RC Number"},
	{"owner_name", "Owner"},
	{"father_name", "Father's Name"},
	{"vehicle_class", "Class"},
	{"fuel_type", "Fuel"},
	{"maker_model", "Model"},
	{"registration_date", "Registered"},
	{"insurance_upto", "Insurance Upto"},
	{"rto", "RTO"},
	{"state", "State"},
}

var ifscFields = []fieldSpec{
	{"BANK", "Bank"},
	{"IFSC", "IFSC"},
	{"BRANCH", "Branch"},
	{"ADDRESS", "Address"},
	{"CITY", "City"},
	{"DISTRICT", "District"},
	{"STATE", "State"},
	{"CONTACT", "Contact"},
	{"MICR", "MICR"},
	{"UPI", "UPI Enabled"},
}

// FormatService renders lookup results and failures into reply text.
type FormatService struct{}

func NewFormatService() *FormatService {
	return &FormatService{}
}

// Raw renders a plain-text upstream body.
func (s *FormatService) Raw(body string) string {
	return strings.TrimSpace(body) + Footer
}

// Vehicle renders a vehicle-registration result.
func (s *FormatService) Vehicle(fields map[string]any) string {
	return s.structured("🚗 VEHICLE INFO", vehicleFields, fields)
}

// IFSC renders a bank-code directory result.
func (s *FormatService) IFSC(fields map[string]any) string {
	return s.structured("🏦 IFSC INFO", ifscFields, fields)
}

// UPI renders the locally resolved UPI handle info.
func (s *FormatService) UPI(info UPIInfo) string {
	var b strings.Builder
	b.WriteString("🔎 UPI ID INFO\n\n")
	b.WriteString(fmt.Sprintf("• UPI ID: %s\n", info.ID))
	b.WriteString(fmt.Sprintf("• Provider: %s\n", info.ProviderCode))
	b.WriteString(fmt.Sprintf("• Bank: %s\n", info.ProviderName))
	b.WriteString("• Account Holder: Not publicly available")
	b.WriteString(Footer)
	return b.String()
}

func (s *FormatService) structured(title string, specs []fieldSpec, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	for _, spec := range specs {
		b.WriteString(fmt.Sprintf("• %s: %s\n", spec.label, fieldValue(fields, spec.key)))
	}
	return strings.TrimRight(b.String(), "\n") + Footer
}

func fieldValue(fields map[string]any, key string) string {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return notAvailable
	}
	switch value := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return notAvailable
		}
		return trimmed
	case bool:
		if value {
			return "Yes"
		}
		return "No"
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Error maps a failure onto its stable user-facing message. Raw transport
// detail is shown only when rendering for the owner.
func (s *FormatService) Error(err error, forOwner bool) string {
	var statusErr *UpstreamStatusError
	var transportErr *TransportError

	var msg string
	switch {
	case errors.Is(err, ErrInvalidFormat):
		msg = "❌ That doesn't look right. Check the value and try again."
	case errors.Is(err, ErrUpstreamTimeout):
		msg = "⏱ Lookup timed out. Try again later."
	case errors.Is(err, ErrMalformedResponse):
		msg = "⚠️ Lookup service sent an unreadable response."
	case errors.As(err, &statusErr):
		msg = fmt.Sprintf("⚠️ Lookup service returned an error (status %d). Try again later.", statusErr.Status)
	case errors.As(err, &transportErr):
		if forOwner {
			msg = fmt.Sprintf("⚠️ Lookup failed: %v", transportErr.Err)
		} else {
			msg = "⚠️ Lookup service is unreachable. Try again later."
		}
	default:
		if forOwner {
			msg = fmt.Sprintf("⚠️ Something went wrong: %v", err)
		} else {
			msg = "⚠️ Something went wrong. Try again later."
		}
	}

	return msg + Footer
}
