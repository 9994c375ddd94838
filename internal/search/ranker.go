// ABOUTME: Similarity ranking with a per-query adaptive relevance threshold.
// ABOUTME: Keeps scores at or above max(floor, mean + k*stddev), falling back to plain top-K.
package search

import (
	"math"
	"sort"

	"github.com/2389-research/memento/internal/embeddings"
	"github.com/2389-research/memento/internal/models"
)

// Ranking defaults.
const (
	DefaultFloor = 0.2
	DefaultK     = 0.25
	DefaultTopK  = 20
)

// NotScorable is the score reported for candidates that have no text to
// compare. Such candidates never count towards statistics or results.
const NotScorable = -1.0

// Candidate is an entry offered for ranking. A nil Vector marks it not scorable.
type Candidate struct {
	Entry  *models.Entry
	Vector []float32
}

// Scored is an entry with its similarity to the query.
type Scored struct {
	Entry *models.Entry
	Score float64
}

// Ranking is the outcome of one ranking pass.
type Ranking struct {
	// Results is ordered best match first.
	Results   []Scored
	Mean      float64
	StdDev    float64
	Threshold float64
	// Valid counts the scorable candidates.
	Valid int
	// Fallback is set when nothing cleared the threshold and Results holds
	// the top candidates regardless of score.
	Fallback bool
}

// Ranker scores candidates and keeps the ones that stand out from the rest.
type Ranker struct {
	Floor float64
	K     float64
	// TopK caps the result count; zero or less means no cap.
	TopK int
}

// DefaultRanker returns a ranker with the default floor, k, and top-K.
func DefaultRanker() Ranker {
	return Ranker{Floor: DefaultFloor, K: DefaultK, TopK: DefaultTopK}
}

// Rank scores every candidate against query and selects the results.
func (r Ranker) Rank(query []float32, candidates []Candidate) Ranking {
	valid := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		// Validity comes from the candidate, not the value: a cosine of
		// exactly -1 is still a real score.
		if !scorable(c) {
			continue
		}
		valid = append(valid, Scored{Entry: c.Entry, Score: Score(query, c)})
	}

	var ranking Ranking
	ranking.Valid = len(valid)
	if len(valid) == 0 {
		ranking.Threshold = r.Floor
		return ranking
	}

	var sum float64
	for _, s := range valid {
		sum += s.Score
	}
	mean := sum / float64(len(valid))

	var variance float64
	for _, s := range valid {
		d := s.Score - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(valid)))

	ranking.Mean = mean
	ranking.StdDev = stddev
	ranking.Threshold = math.Max(r.Floor, mean+r.K*stddev)

	var kept []Scored
	for _, s := range valid {
		if s.Score >= ranking.Threshold {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		kept = valid
		ranking.Fallback = true
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if r.TopK > 0 && len(kept) > r.TopK {
		kept = kept[:r.TopK]
	}
	ranking.Results = kept
	return ranking
}

// Score returns the similarity of a candidate to query, or NotScorable.
func Score(query []float32, c Candidate) float64 {
	if !scorable(c) {
		return NotScorable
	}
	return embeddings.Cosine(query, c.Vector)
}

func scorable(c Candidate) bool {
	return c.Entry != nil && c.Vector != nil && c.Entry.SearchText() != ""
}
