package domain

import "strings"

// UnknownCountry is used when the issuing country cannot be determined.
const UnknownCountry = "XX"

type AlternativeType struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

// Classification is the result of the external document classifier.
type Classification struct {
	DocumentType     string            `json:"document_type"`
	Country          string            `json:"country"`
	Confidence       float64           `json:"confidence"`
	AlternativeTypes []AlternativeType `json:"alternative_types,omitempty"`
}

// NormalizeDocumentType lowercases a classifier label and collapses separators
// to underscores ("Driver License" -> "driver_license").
func NormalizeDocumentType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// NormalizeCountry validates an ISO 3166-1 alpha-2 code, falling back to
// UnknownCountry for anything that is not two ASCII letters.
func NormalizeCountry(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return UnknownCountry
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return UnknownCountry
		}
	}
	return s
}
