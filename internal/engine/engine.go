// Package engine contains clients for the corpus services that word
// frequencies are scraped from. Every client implements Engine.
package engine

import "context"

// Record is the frequency of one word as reported by one engine.
//
// HitCount and PerMillion are kept as the text the service printed,
// they are not parsed into numbers.
type Record struct {
	Word       string
	HitCount   string
	PerMillion string
}

// Fields returns the record in output column order.
func (r Record) Fields() []string {
	return []string{r.Word, r.HitCount, r.PerMillion}
}

// Header is the column names for Record.Fields.
var Header = []string{"word", "hit_count", "per_million"}

// Engine queries a corpus service for the frequency of a word.
//
// Query returns a Record whose Word equals `word` or an *Error. Engines
// keep no state between calls except for authentication.
type Engine interface {
	Name() string
	Query(ctx context.Context, word string) (Record, error)
}
