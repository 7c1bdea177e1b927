package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"blog/app/models"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// fieldBoosts weights a match in the title three times and in the body twice
// as much as one in the intro
var fieldBoosts = []struct {
	field string
	boost float64
}{
	{"title", 3},
	{"body", 2},
	{"intro", 1},
}

// autoFuzziness is the allowed edit distance for a term: exact for one or
// two characters, one edit up to five, two beyond
func autoFuzziness(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// buildQuery matches any term of text in any weighted field and keeps only
// published posts. It returns nil for a blank query. The disjunction sums
// the scores of every matching field, so a term found in both title and
// body ranks above one found in the title alone.
func buildQuery(text string) blevequery.Query {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(terms) == 0 {
		return nil
	}

	matches := make([]blevequery.Query, 0, len(terms)*len(fieldBoosts))
	for _, fb := range fieldBoosts {
		for _, term := range terms {
			q := bleve.NewMatchQuery(term)
			q.SetField(fb.field)
			q.SetBoost(fb.boost)
			q.SetFuzziness(autoFuzziness(term))
			matches = append(matches, q)
		}
	}

	published := bleve.NewTermQuery(string(models.StatusPublished))
	published.SetField("status")

	return bleve.NewConjunctionQuery(bleve.NewDisjunctionQuery(matches...), published)
}
