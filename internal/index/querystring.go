package index

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrSyntax is returned by ParseQuery for query strings it cannot parse.
var ErrSyntax = errors.New("index: query syntax error")

// maxFuzziness is the largest edit distance bleve accepts for fuzzy terms.
const maxFuzziness = 2

type occur int

const (
	occurShould occur = iota
	occurMust
	occurMustNot
)

type clause struct {
	occur occur
	q     query.Query
}

// ParseQuery translates a classic query string into a bleve query over the
// content field. Bare terms are optional (OR semantics), "+" and "-" make a
// term required or prohibited, "term~N" requests fuzzy matching within edit
// distance N, "*" introduces a wildcard and double quotes delimit a phrase.
// The literal OR operator and grouping parentheses are accepted and ignored,
// since terms are already disjunctive.
//
// ParseQuery returns a nil query when nothing searchable remains.
func ParseQuery(s string) (query.Query, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	var must, should, mustNot []query.Query
	for _, tok := range tokens {
		c, ok := parseToken(tok)
		if !ok {
			continue
		}
		switch c.occur {
		case occurMust:
			must = append(must, c.q)
		case occurMustNot:
			mustNot = append(mustNot, c.q)
		default:
			should = append(should, c.q)
		}
	}

	if len(must) == 0 && len(should) == 0 {
		// A purely negative query matches nothing.
		return nil, nil
	}
	if len(must) == 0 && len(mustNot) == 0 {
		if len(should) == 1 {
			return should[0], nil
		}
		return bleve.NewDisjunctionQuery(should...), nil
	}

	bq := bleve.NewBooleanQuery()
	if len(must) > 0 {
		bq.AddMust(must...)
	}
	if len(should) > 0 {
		bq.AddShould(should...)
		if len(must) == 0 {
			bq.SetMinShould(1)
		}
	}
	if len(mustNot) > 0 {
		bq.AddMustNot(mustNot...)
	}
	return bq, nil
}

// tokenize splits on whitespace, keeping quoted phrases (with an optional
// leading +/-) together.
func tokenize(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			cur.WriteRune(r)
			inQuote = !inQuote
			if !inQuote {
				flush()
			}
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, ErrSyntax
	}
	flush()
	return tokens, nil
}

func parseToken(tok string) (clause, bool) {
	if tok == "OR" {
		return clause{}, false
	}

	c := clause{occur: occurShould}
	switch {
	case strings.HasPrefix(tok, "+"):
		c.occur = occurMust
		tok = tok[1:]
	case strings.HasPrefix(tok, "-"):
		c.occur = occurMustNot
		tok = tok[1:]
	}

	if strings.HasPrefix(tok, `"`) {
		phrase := strings.Trim(tok, `"`)
		if strings.TrimSpace(phrase) == "" {
			return clause{}, false
		}
		pq := bleve.NewMatchPhraseQuery(phrase)
		pq.SetField(fieldContent)
		c.q = pq
		return c, true
	}

	tok = strings.Map(func(r rune) rune {
		if r == '(' || r == ')' || r == '"' {
			return -1
		}
		return r
	}, tok)
	if tok == "" || tok == "OR" {
		return clause{}, false
	}

	if i := strings.LastIndex(tok, "~"); i >= 0 {
		term := strings.ToLower(tok[:i])
		if term == "" {
			return clause{}, false
		}
		fuzziness := maxFuzziness
		if n, err := strconv.Atoi(tok[i+1:]); err == nil && n >= 0 && n < maxFuzziness {
			fuzziness = n
		}
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(fieldContent)
		c.q = fq
		return c, true
	}

	if strings.Contains(tok, "*") {
		if strings.Trim(tok, "*") == "" {
			return clause{}, false
		}
		wq := bleve.NewWildcardQuery(strings.ToLower(tok))
		wq.SetField(fieldContent)
		c.q = wq
		return c, true
	}

	mq := bleve.NewMatchQuery(tok)
	mq.SetField(fieldContent)
	c.q = mq
	return c, true
}
