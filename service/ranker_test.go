package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omeshsingh/bnsp/models"
)

func sampleSections() []models.Section {
	return []models.Section{
		{Number: "1", Title: "A", Keywords: []string{"theft", "robbery"}},
		{Number: "2", Title: "B", Keywords: []string{"murder"}},
		{Number: "3", Title: "C", Keywords: []string{"Theft", "Fraud", "cheating"}},
		{Number: "4", Title: "D", Keywords: nil},
		{Number: "5", Title: "E", Keywords: []string{" FRAUD "}},
	}
}

func TestRankSections_EmptyKeywords(t *testing.T) {
	assert.Empty(t, RankSections(nil, sampleSections()))
	assert.Empty(t, RankSections([]string{}, sampleSections()))
	assert.Empty(t, RankSections([]string{"  ", ""}, sampleSections()))
	assert.NotNil(t, RankSections(nil, sampleSections()))
}

func TestRankSections_OrderAndCounts(t *testing.T) {
	got := RankSections([]string{"theft", "fraud"}, sampleSections())

	numbers := make([]string, len(got))
	for i, r := range got {
		numbers[i] = r.Number
		assert.GreaterOrEqual(t, r.MatchCount, 1)
		if i > 0 {
			assert.LessOrEqual(t, r.MatchCount, got[i-1].MatchCount)
		}
	}
	assert.Equal(t, []string{"3", "1", "5"}, numbers)
	assert.Equal(t, 2, got[0].MatchCount)
}

func TestRankSections_NormalisesUserKeywords(t *testing.T) {
	s := sampleSections()
	assert.Equal(t, RankSections([]string{"theft"}, s), RankSections([]string{" Theft "}, s))
}

func TestRankSections_DuplicateKeywordsCountOnce(t *testing.T) {
	got := RankSections([]string{"theft", "THEFT", "theft "}, []models.Section{
		{Number: "9", Keywords: []string{"theft", "Theft"}},
	})
	assert.Len(t, got, 1)
	assert.Equal(t, 1, got[0].MatchCount)
}

func TestRankSections_NoMatches(t *testing.T) {
	assert.Empty(t, RankSections([]string{"arson"}, sampleSections()))
}

func TestRankSections_TwoSectionScenario(t *testing.T) {
	sections := []models.Section{
		{Number: "1", Keywords: []string{"theft", "robbery"}},
		{Number: "2", Keywords: []string{"murder"}},
	}
	got := RankSections([]string{"theft", "fraud"}, sections)
	assert.Equal(t, []models.RankedSection{{Section: sections[0], MatchCount: 1}}, got)
}

func TestRankSections_TiesKeepInputOrder(t *testing.T) {
	sections := []models.Section{
		{Number: "10", Keywords: []string{"hurt"}},
		{Number: "2", Keywords: []string{"hurt"}},
		{Number: "7", Keywords: []string{"hurt", "grievous hurt"}},
	}
	got := RankSections([]string{"hurt", "grievous hurt"}, sections)
	assert.Equal(t, "7", got[0].Number)
	assert.Equal(t, "10", got[1].Number)
	assert.Equal(t, "2", got[2].Number)
}
