package models

// Analysis is the result of a retrieval-augmented generation request
type Analysis struct {
	Text              string            `json:"analysis"`
	SuggestedSections []SectionMetadata `json:"suggested_sections"`
}
