// Package search implements the weighted ranking engine of spec.md
// §4.5: it takes FTS-matched candidates from internal/index and scores
// them with the field-weighted relevance formula, breaking ties by
// recency then id, and extracts a snippet around the best match using
// a single Aho-Corasick scan of the body.
package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/coregx/ahocorasick"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/qerrors"
	"github.com/mwaldstein/qipu-go/internal/textutil"
)

// Field weights, per spec.md §4.5, lifted from
// the original implementation's weights.rs via internal/textutil.
const (
	titleWeight = textutil.TitleWeight
	tagsWeight  = textutil.TagsWeight
	bodyWeight  = textutil.BodyWeight
)

// Engine is the query-execution entry point consumed by callers
// outside the core (spec.md §1's "thin external collaborators").
type Engine struct {
	idx     *index.Index
	tauDays float64
}

// New builds a search Engine backed by idx. tauDays is the recency
// decay time constant in days: the boost is exp(-age/tauDays), so it
// falls to 1/e (not 1/2) at an age of tauDays (config.toml's [search]
// tau_days; 0 means "use the default of 30").
func New(idx *index.Index, tauDays float64) *Engine {
	if tauDays <= 0 {
		tauDays = 30
	}
	return &Engine{idx: idx, tauDays: tauDays}
}

// Filter narrows a Search call.
type Filter struct {
	Type  string
	Tag   string
	Since time.Time
	Limit int
}

// Result is one ranked hit.
type Result struct {
	ID        string
	Title     string
	Snippet   string
	Relevance float64
}

// Search executes query, applies filters before ranking (P7: a
// strictly more specific filter never increases the result set), and
// returns results sorted by relevance desc, then updated desc, then id
// asc.
func (e *Engine) Search(query string, f Filter) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &qerrors.UsageError{Detail: "search query must not be empty"}
	}

	terms := textutil.Tokenize(query)
	if len(terms) == 0 {
		return nil, &qerrors.UsageError{Detail: "search query has no indexable terms"}
	}

	candidates, err := e.idx.SearchCandidates(ftsMatchExpr(terms), index.SearchFilter{
		Type: f.Type, Tag: f.Tag, Since: f.Since,
	})
	if err != nil {
		return nil, err
	}

	automaton, err := buildSnippetAutomaton(terms)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]Result, 0, len(candidates))
	updated := make(map[string]time.Time, len(candidates))
	for _, c := range candidates {
		updated[c.ID] = c.Updated
		score := e.score(terms, c, now)
		results = append(results, Result{
			ID:        c.ID,
			Title:     c.Title,
			Snippet:   snippetFor(automaton, c.Body),
			Relevance: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		ui, uj := updated[results[i].ID], updated[results[j].ID]
		if !ui.Equal(uj) {
			return ui.After(uj)
		}
		return results[i].ID < results[j].ID
	})
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	return results, nil
}

// score implements score = α·match(title)·W_title + β·match(body)·W_body
// + γ·match(tags)·W_tags + δ·recency_boost(updated), where match(field)
// is the fraction of query terms present in that field.
func (e *Engine) score(terms []string, c index.Candidate, now time.Time) float64 {
	titleTokens := tokenSet(textutil.Tokenize(c.Title))
	bodyTokens := tokenSet(textutil.Tokenize(c.Body))
	tagTokens := tokenSet(c.Tags)

	matchTitle := matchFraction(terms, titleTokens)
	matchBody := matchFraction(terms, bodyTokens)
	matchTags := matchFraction(terms, tagTokens)

	days := now.Sub(c.Updated).Hours() / 24
	if days < 0 {
		days = 0
	}
	recency := math.Exp(-days / e.tauDays)

	return matchTitle*titleWeight + matchBody*bodyWeight + matchTags*tagsWeight + recency
}

func matchFraction(terms []string, present map[string]bool) float64 {
	if len(terms) == 0 {
		return 0
	}
	hit := 0
	for _, t := range terms {
		if present[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(terms))
}

func tokenSet(tokens []string) map[string]bool {
	m := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		m[strings.ToLower(t)] = true
	}
	return m
}

func ftsMatchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func buildSnippetAutomaton(terms []string) (*ahocorasick.Automaton, error) {
	return ahocorasick.NewBuilder().
		AddStrings(terms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
}

const snippetRadius = 80

// snippetFor scans body once with automaton and returns a window
// around the first match, instead of re-scanning per term.
func snippetFor(automaton *ahocorasick.Automaton, body string) string {
	lower := strings.ToLower(body)
	matches := automaton.FindAllOverlapping([]byte(lower))
	if len(matches) == 0 {
		return firstWords(body, 24)
	}
	m := matches[0]
	start := m.Start - snippetRadius
	if start < 0 {
		start = 0
	}
	end := m.End + snippetRadius
	if end > len(body) {
		end = len(body)
	}
	snippet := strings.TrimSpace(body[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(body) {
		snippet = snippet + "…"
	}
	return snippet
}

func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
