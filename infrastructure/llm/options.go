package llm

// options.go holds the shared extraction, validation, and clamping helpers
// providers use when translating the generic options map into native
// request parameters.

import (
	"fmt"
	"net/url"
	"time"
)

// Valid ranges for common request parameters, shared across providers.
const (
	// MinTemperature is the minimum allowed sampling temperature.
	MinTemperature = 0.0
	// MaxTemperature is the maximum allowed sampling temperature.
	// Set to 2.0 to accommodate providers like Gemini.
	MaxTemperature = 2.0
	// MinTopP is the minimum allowed nucleus-sampling threshold.
	MinTopP = 0.0
	// MaxTopP is the maximum allowed nucleus-sampling threshold.
	MaxTopP = 1.0
	// MinPenalty is the minimum frequency or presence penalty.
	MinPenalty = -2.0
	// MaxPenalty is the maximum frequency or presence penalty.
	MaxPenalty = 2.0
	// MinTimeout is the smallest request timeout worth honoring.
	MinTimeout = 1 * time.Second
	// MaxTimeout is the largest request timeout worth honoring.
	MaxTimeout = 10 * time.Minute
)

// ExtractOptionalInt reads an int from the options map, returning
// defaultVal when the key is absent, mistyped, or fails validation.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString reads a string from the options map, returning
// defaultVal when the key is absent, mistyped, or fails validation.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 reads a float64 from the options map, returning
// defaultVal when the key is absent, mistyped, or fails validation.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(floatVal) {
		return defaultVal
	}
	return floatVal
}

// IsValidTemperature reports whether val is within [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP reports whether val is within [0.0, 1.0].
func IsValidTopP(val float64) bool {
	return val >= MinTopP && val <= MaxTopP
}

// IsValidPenalty reports whether val is within [-2.0, 2.0].
func IsValidPenalty(val float64) bool {
	return val >= MinPenalty && val <= MaxPenalty
}

// IsPositiveInt reports whether val is greater than zero.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString reports whether val is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// ValidateBaseURL checks that an endpoint override is a well-formed http or
// https URL. An empty string is valid and means the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme == "" {
		return "", fmt.Errorf("URL must include a scheme (e.g., http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, but got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsedURL.String(), nil
}

// ValidateTimeout clamps a timeout to the supported range. Zero or negative
// values return zero, meaning no client-side bound.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// SafeFloat32 converts a numeric value of type any to float32, reporting
// failure when the value is out of range or would lose precision.
func SafeFloat32(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		if v > 3.4e38 || v < -3.4e38 {
			return 0, false
		}
		return float32(v), true
	case int:
		return float32(v), true
	case int64:
		// 2^24 is the largest integer float32 represents exactly.
		if v > 16777216 || v < -16777216 {
			return 0, false
		}
		return float32(v), true
	default:
		return 0, false
	}
}

// ClampFloat64 restricts val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampInt restricts val to [min, max].
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
