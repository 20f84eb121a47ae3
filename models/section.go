package models

import "fmt"

// Section represents a single BNS statute section as stored in crime_sections
type Section struct {
	Number        string   `json:"bns_section_number"`
	Title         string   `json:"bns_section_title"`
	Text          string   `json:"bns_section_text"`
	Keywords      []string `json:"keywords"`
	CrimeCategory string   `json:"crime_category"`
}

// PageContent returns the text that is embedded for semantic retrieval
func (s *Section) PageContent() string {
	return fmt.Sprintf("Section %s: %s. Details: %s", s.Number, s.Title, s.Text)
}

// Metadata returns the subset of fields reported as a suggested section
func (s *Section) Metadata() SectionMetadata {
	return SectionMetadata{
		Number:        s.Number,
		Title:         s.Title,
		CrimeCategory: s.CrimeCategory,
		PageContent:   s.PageContent(),
	}
}

// RankedSection is a section matched by keyword overlap
type RankedSection struct {
	Section
	MatchCount int `json:"match_count"`
}

// SectionMetadata is the retrieval-side view of a section
type SectionMetadata struct {
	Number        string  `json:"bns_section_number"`
	Title         string  `json:"bns_section_title"`
	CrimeCategory string  `json:"crime_category"`
	PageContent   string  `json:"-"`
	Distance      float64 `json:"-"` // Cosine distance to the query
}
