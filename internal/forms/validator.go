// Package forms extracts and validates structured values from guided
// dialogue answers. Validation never fails with an internal error; every
// failure is a user-facing message.
package forms

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"dialogcore/internal/observability"
)

// ValidationKind is the closed set of format validators. Dispatch is by
// enum so a typo in stored field settings fails at parse time instead of
// silently skipping validation.
type ValidationKind int

const (
	ValidationNone ValidationKind = iota
	ValidationPhone
	ValidationNationalID
	ValidationEmail
	ValidationName
	ValidationAddress
)

// ParseValidationKind maps the stored string form of a validation kind.
func ParseValidationKind(s string) (ValidationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ValidationNone, nil
	case "phone":
		return ValidationPhone, nil
	case "taiwan_id", "national_id":
		return ValidationNationalID, nil
	case "email":
		return ValidationEmail, nil
	case "taiwan_name", "name":
		return ValidationName, nil
	case "address":
		return ValidationAddress, nil
	default:
		return ValidationNone, fmt.Errorf("unknown validation kind %q", s)
	}
}

// String returns the stored string form.
func (k ValidationKind) String() string {
	switch k {
	case ValidationPhone:
		return "phone"
	case ValidationNationalID:
		return "national_id"
	case ValidationEmail:
		return "email"
	case ValidationName:
		return "name"
	case ValidationAddress:
		return "address"
	default:
		return "none"
	}
}

// FieldDefinition describes one expected answer in a guided dialogue. It is
// supplied by the caller per turn; the core does not own field storage.
type FieldDefinition struct {
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label" yaml:"label"`
	Prompt     string         `json:"prompt" yaml:"prompt"`
	Kind       string         `json:"kind" yaml:"kind"`
	Validation ValidationKind `json:"-" yaml:"-"`
	Required   bool           `json:"required" yaml:"required"`
	MinLength  int            `json:"min_length" yaml:"min_length"`
	MaxLength  int            `json:"max_length" yaml:"max_length"`
}

// ValidationResult is the outcome of validating one raw answer.
type ValidationResult struct {
	Valid        bool   `json:"is_valid"`
	Value        string `json:"extracted_value,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Extraction patterns pull the candidate value out of surrounding prose,
// e.g. "我的電話是0912345678" yields "0912345678".
var (
	phoneExtractPattern = regexp.MustCompile(`09\d{8}|0\d{1,2}-\d{6,8}`)
	idExtractPattern    = regexp.MustCompile(`[A-Z][12]\d{8}`)
	emailExtractPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// Full-string validation patterns.
var (
	mobilePattern      = regexp.MustCompile(`^09\d{8}$`)
	landline1Pattern   = regexp.MustCompile(`^0\d-\d{7,8}$`)
	landline2Pattern   = regexp.MustCompile(`^0\d{2}-\d{6,8}$`)
	nationalIDPattern  = regexp.MustCompile(`^[A-Z][12]\d{8}$`)
	emailPattern       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	chineseNamePattern = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}]{2,10}$`)
	latinNamePattern   = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
)

// minAddressLength is the shortest plausible address ("台北市" plus a road).
const minAddressLength = 5

// Validator validates guided-dialogue answers against field definitions.
// Stateless and safe for unbounded concurrent use.
type Validator struct {
	logger  *observability.Logger
	metrics *observability.MetricsCollector
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger attaches a logger.
func WithLogger(logger *observability.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *observability.MetricsCollector) Option {
	return func(v *Validator) { v.metrics = metrics }
}

// NewValidator builds a validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate extracts a candidate value from raw text and checks it against
// the field definition. Identical input always yields an identical result.
func (v *Validator) Validate(ctx context.Context, field FieldDefinition, raw string) ValidationResult {
	kind := v.effectiveKind(field)
	extracted := extractValue(raw, kind)
	label := field.Label
	if label == "" {
		label = field.Name
	}

	if field.Required && strings.TrimSpace(extracted) == "" {
		return v.fail(ctx, field, fmt.Sprintf("%s is required", label))
	}

	length := utf8.RuneCountInString(extracted)
	if field.MinLength > 0 && length < field.MinLength {
		return v.fail(ctx, field, fmt.Sprintf("%s must be at least %d characters", label, field.MinLength))
	}
	if field.MaxLength > 0 && length > field.MaxLength {
		return v.fail(ctx, field, fmt.Sprintf("%s must be at most %d characters", label, field.MaxLength))
	}

	if msg := validateKind(kind, extracted); msg != "" {
		return v.fail(ctx, field, msg)
	}

	return ValidationResult{Valid: true, Value: extracted}
}

// effectiveKind resolves the validation kind, falling back to the field's
// kind string when no explicit validation is set.
func (v *Validator) effectiveKind(field FieldDefinition) ValidationKind {
	if field.Validation != ValidationNone {
		return field.Validation
	}
	kind, err := ParseValidationKind(field.Kind)
	if err != nil {
		// Free-form kinds such as "text" carry no format validation.
		return ValidationNone
	}
	return kind
}

func (v *Validator) fail(ctx context.Context, field FieldDefinition, msg string) ValidationResult {
	v.metrics.RecordValidationFailure(ctx, field.Name)
	v.logger.DebugContext(ctx, "field validation failed", "field", field.Name, "message", msg)
	return ValidationResult{Valid: false, ErrorMessage: msg}
}

// extractValue pulls the candidate value from surrounding prose using the
// kind-specific pattern, falling back to the trimmed raw text.
func extractValue(raw string, kind ValidationKind) string {
	cleaned := strings.TrimSpace(raw)

	switch kind {
	case ValidationPhone:
		if match := phoneExtractPattern.FindString(cleaned); match != "" {
			return match
		}
	case ValidationNationalID:
		if match := idExtractPattern.FindString(strings.ToUpper(cleaned)); match != "" {
			return match
		}
	case ValidationEmail:
		if match := emailExtractPattern.FindString(cleaned); match != "" {
			return match
		}
	}

	return cleaned
}

func validateKind(kind ValidationKind, value string) string {
	switch kind {
	case ValidationPhone:
		return validatePhone(value)
	case ValidationNationalID:
		return validateNationalID(value)
	case ValidationEmail:
		return validateEmail(value)
	case ValidationName:
		return validateName(value)
	case ValidationAddress:
		return validateAddress(value)
	default:
		return ""
	}
}

func validatePhone(value string) string {
	if mobilePattern.MatchString(value) || landline1Pattern.MatchString(value) || landline2Pattern.MatchString(value) {
		return ""
	}
	return "please enter a valid phone number (e.g. 0912345678 or 02-12345678)"
}

// letterValues maps a national ID's leading letter to its two-digit code.
// The table is historical and not alphabetical: I, O, W, X, Y, Z deviate.
var letterValues = map[byte]int{
	'A': 10, 'B': 11, 'C': 12, 'D': 13, 'E': 14, 'F': 15, 'G': 16, 'H': 17,
	'I': 34, 'J': 18, 'K': 19, 'L': 20, 'M': 21, 'N': 22, 'O': 35, 'P': 23,
	'Q': 24, 'R': 25, 'S': 26, 'T': 27, 'U': 28, 'V': 29, 'W': 32, 'X': 30,
	'Y': 31, 'Z': 33,
}

// checksumWeights apply to [letter tens digit, letter ones digit, the eight
// body digits, check digit].
var checksumWeights = [11]int{1, 9, 8, 7, 6, 5, 4, 3, 2, 1, 1}

func validateNationalID(value string) string {
	if !nationalIDPattern.MatchString(value) {
		return "invalid national ID format (e.g. A123456789)"
	}

	letterValue := letterValues[value[0]]
	digits := [11]int{letterValue / 10, letterValue % 10}
	for i := 1; i < len(value); i++ {
		digits[i+1] = int(value[i] - '0')
	}

	total := 0
	for i, d := range digits {
		total += d * checksumWeights[i]
	}
	if total%10 != 0 {
		return "national ID check digit is incorrect, please re-enter"
	}
	return ""
}

func validateEmail(value string) string {
	if emailPattern.MatchString(value) {
		return ""
	}
	return "please enter a valid email address (e.g. example@domain.com)"
}

func validateName(value string) string {
	if chineseNamePattern.MatchString(value) || latinNamePattern.MatchString(value) {
		return ""
	}
	return "please enter a valid name (2-10 Chinese characters or 2-50 Latin letters)"
}

func validateAddress(value string) string {
	if utf8.RuneCountInString(value) >= minAddressLength {
		return ""
	}
	return "please provide a complete address (at least 5 characters)"
}
