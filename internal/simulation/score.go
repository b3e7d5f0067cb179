package simulation

import "fmt"

// SingleScore is the result a level scene produces when it finishes.
type SingleScore struct {
	Score    int      `json:"score" yaml:"score"`
	MaxScore int      `json:"max_score" yaml:"max_score"`
	Comments []string `json:"comments,omitempty" yaml:"comments"`
}

// Validate checks 0 <= Score <= MaxScore.
func (s SingleScore) Validate() error {
	if s.Score < 0 {
		return fmt.Errorf("%w: score %d is negative", ErrInvalidScore, s.Score)
	}
	if s.Score > s.MaxScore {
		return fmt.Errorf("%w: score %d exceeds maximum %d", ErrInvalidScore, s.Score, s.MaxScore)
	}
	return nil
}

// ScoreEntry is one level's folded (score, maximum) pair.
type ScoreEntry struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// ScoreRecord aggregates level outcomes for one run, keyed by level name.
// Each configured level is written exactly once, in level order.
type ScoreRecord[L LevelName] struct {
	kind    Kind
	order   []L
	fields  map[L]string
	entries map[L]ScoreEntry
}

func newScoreRecord[L LevelName](kind Kind, specs []LevelSpec[L]) *ScoreRecord[L] {
	r := &ScoreRecord[L]{
		kind:    kind,
		order:   make([]L, 0, len(specs)),
		fields:  make(map[L]string, len(specs)),
		entries: make(map[L]ScoreEntry, len(specs)),
	}
	for _, s := range specs {
		r.order = append(r.order, s.Name)
		r.fields[s.Name] = s.Field
	}
	return r
}

func (r *ScoreRecord[L]) set(name L, e ScoreEntry) error {
	if _, ok := r.fields[name]; !ok {
		return fmt.Errorf("level %s is not part of this record", name)
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("level %s already scored", name)
	}
	r.entries[name] = e
	return nil
}

// Get returns the entry for a level, if it has been scored.
func (r *ScoreRecord[L]) Get(name L) (ScoreEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Len returns the number of scored levels.
func (r *ScoreRecord[L]) Len() int {
	return len(r.entries)
}

// Complete reports whether every configured level has an entry.
func (r *ScoreRecord[L]) Complete() bool {
	return len(r.entries) == len(r.order)
}

// Record returns a name-erased snapshot of the scored levels in level order.
func (r *ScoreRecord[L]) Record() Record {
	rec := Record{Kind: r.kind, Entries: make([]RecordEntry, 0, len(r.entries))}
	for _, name := range r.order {
		e, ok := r.entries[name]
		if !ok {
			continue
		}
		rec.Entries = append(rec.Entries, RecordEntry{
			Level:    name.String(),
			Field:    r.fields[name],
			Score:    e.Score,
			MaxScore: e.MaxScore,
		})
	}
	return rec
}

// Record is the submission form of a ScoreRecord.
type Record struct {
	Kind    Kind          `json:"kind"`
	Entries []RecordEntry `json:"entries"`
}

// RecordEntry is one level of a Record. Field is the backend field prefix.
type RecordEntry struct {
	Level    string `json:"level"`
	Field    string `json:"field"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
}

// Totals sums score and maximum over all entries.
func (r Record) Totals() (score, maxScore int) {
	for _, e := range r.Entries {
		score += e.Score
		maxScore += e.MaxScore
	}
	return score, maxScore
}

// Fields flattens the record into <field>Score / <field>ScoreTotal pairs.
func (r Record) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Entries)*2)
	for _, e := range r.Entries {
		out[e.Field+"Score"] = e.Score
		out[e.Field+"ScoreTotal"] = e.MaxScore
	}
	return out
}
