package service

import (
	"sort"
	"strings"

	"github.com/omeshsingh/bnsp/models"
)

// RankSections scores each section by how many of the user's keywords it carries.
// Keywords compare case-insensitively after trimming; sections with no overlap are dropped.
// Results are ordered by descending match count, ties keep the input order.
func RankSections(userKeywords []string, sections []models.Section) []models.RankedSection {
	ranked := []models.RankedSection{}

	wanted := keywordSet(userKeywords)
	if len(wanted) == 0 {
		return ranked
	}

	for _, s := range sections {
		n := 0
		for kw := range keywordSet(s.Keywords) {
			if _, ok := wanted[kw]; ok {
				n++
			}
		}
		if n > 0 {
			ranked = append(ranked, models.RankedSection{Section: s, MatchCount: n})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchCount > ranked[j].MatchCount
	})
	return ranked
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if k := normalizeKeyword(kw); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}
