package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/reuniteapp/reunite-api/internal/models"
)

const maxSharedExamples = 5

// Weights fixes the maximum contribution of each similarity signal.
// The values are read from configuration once at startup and injected
// here; nothing downstream re-declares them.
type Weights struct {
	Category int
	Location int
	Keywords int
}

// DefaultWeights returns the standard 40/30/30 split.
func DefaultWeights() Weights {
	return Weights{Category: 40, Location: 30, Keywords: 30}
}

// Scorer computes the similarity score between a lost and a found
// report. Scoring is pure: the same two item snapshots always produce
// the same score and breakdown, regardless of argument order.
type Scorer struct {
	weights   Weights
	extractor *Extractor
}

// NewScorer builds a Scorer. A nil extractor falls back to one with
// default stop-words, so keyword sets can always be recomputed for
// items that were never enriched.
func NewScorer(weights Weights, extractor *Extractor) *Scorer {
	if extractor == nil {
		extractor = NewExtractor(nil, 0)
	}
	return &Scorer{weights: weights, extractor: extractor}
}

// Score fuses the category, location and keyword signals of two items
// into one integer score in [0,100] plus the breakdown explaining it.
func (s *Scorer) Score(a, b *models.Item) (int, models.MatchBreakdown) {
	var total float64
	var breakdown models.MatchBreakdown

	if a.Category != "" && a.Category == b.Category {
		total += float64(s.weights.Category)
		breakdown.CategoryMatched = true
	}

	if pts := s.locationPoints(a, b); pts > 0 {
		total += pts
		breakdown.LocationMatched = true
	}

	ka := s.keywords(a)
	kb := s.keywords(b)
	inter, shared := intersect(ka, kb)
	breakdown.KeywordOverlap = inter
	breakdown.SharedKeywords = shared
	if inter > 0 {
		union := len(union(ka, kb))
		jaccard := float64(inter) / float64(union)
		bonus := math.Min(float64(inter)/5, 1) * 0.3
		total += (jaccard + bonus) * float64(s.weights.Keywords)
	}

	score := int(math.Round(math.Min(100, math.Max(0, total))))
	return score, breakdown
}

// locationPoints applies the tiered location comparison: exact match
// takes the full weight, containment 70%, a shared token longer than
// two characters 50%.
func (s *Scorer) locationPoints(a, b *models.Item) float64 {
	la := s.location(a)
	lb := s.location(b)
	if la == "" || lb == "" {
		return 0
	}
	w := float64(s.weights.Location)
	switch {
	case la == lb:
		return w
	case strings.Contains(la, lb) || strings.Contains(lb, la):
		return w * 0.7
	case sharedLocationToken(la, lb):
		return w * 0.5
	}
	return 0
}

// keywords prefers the enrichment stored on the item and falls back to
// a fresh extraction for items scored before enrichment ran.
func (s *Scorer) keywords(it *models.Item) []string {
	if len(it.Keywords) > 0 {
		return it.Keywords
	}
	return s.extractor.Keywords(it.SearchText())
}

// location mirrors keywords for the normalized location field.
func (s *Scorer) location(it *models.Item) string {
	if it.NormalizedLocation != "" {
		return it.NormalizedLocation
	}
	return NormalizeLocation(it.Location)
}

// intersect returns the intersection size plus up to five shared
// tokens in the order they appear in the first set.
func intersect(a, b []string) (int, []string) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	count := 0
	var examples []string
	for _, t := range a {
		if _, ok := set[t]; !ok {
			continue
		}
		count++
		if len(examples) < maxSharedExamples {
			examples = append(examples, t)
		}
	}
	return count, examples
}

func union(a, b []string) map[string]struct{} {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		set[t] = struct{}{}
	}
	return set
}

// Candidate pairs a pool item with the score it earned against the
// subject of a matching pass.
type Candidate struct {
	Item      *models.Item
	Score     int
	Breakdown models.MatchBreakdown
}

// Finder ranks an open-item pool against a subject item. Threshold and
// cap come from configuration at construction time.
type Finder struct {
	scorer     *Scorer
	minScore   int
	maxMatches int
}

// NewFinder builds a Finder around the given scorer. Non-positive
// bounds fall back to the standard threshold of 50 and cap of 3.
func NewFinder(scorer *Scorer, minScore, maxMatches int) *Finder {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights(), nil)
	}
	if minScore <= 0 {
		minScore = 50
	}
	if maxMatches <= 0 {
		maxMatches = 3
	}
	return &Finder{scorer: scorer, minScore: minScore, maxMatches: maxMatches}
}

// Scorer exposes the underlying scorer for callers that need a single
// pairwise score.
func (f *Finder) Scorer() *Scorer {
	return f.scorer
}

// Rank scores every live pool candidate against item, drops those
// below the threshold or past their expiry, and returns at most the
// configured number of candidates ordered by score descending. Equal
// scores keep pool order, so a stable pool ordering makes the whole
// ranking deterministic. Rank reads its inputs only; calling it twice
// over an unchanged pool yields the same result.
func (f *Finder) Rank(item *models.Item, pool []*models.Item, now time.Time) []Candidate {
	var out []Candidate
	for _, cand := range pool {
		if cand.ID == item.ID || cand.Expired(now) {
			continue
		}
		score, breakdown := f.scorer.Score(item, cand)
		if score < f.minScore {
			continue
		}
		out = append(out, Candidate{Item: cand, Score: score, Breakdown: breakdown})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > f.maxMatches {
		out = out[:f.maxMatches]
	}
	return out
}
