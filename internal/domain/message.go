package domain

import (
	"sort"

	"github.com/rs/xid"
)

// Message is a short text attached to another entity, stored per language.
// Languages always equals the set of keys of non-empty Texts.
type Message struct {
	Day       Day               `cql:"day"`
	ID        xid.ID            `cql:"id"`
	AttachTo  xid.ID            `cql:"attach_to"`
	Kind      string            `cql:"kind"`
	Context   string            `cql:"context"`
	Language  Language          `cql:"language"`
	Languages []Language        `cql:"languages"`
	Texts     map[string][]byte `cql:"texts"`
	Version   int16             `cql:"version"`
	CreatedAt int64             `cql:"created_at"`
	UpdatedAt int64             `cql:"updated_at"`
}

// Text returns the payload in lang and whether it exists.
func (m *Message) Text(lang Language) ([]byte, bool) {
	b, ok := m.Texts[string(lang)]
	return b, ok && len(b) > 0
}

// PopulatedLanguages derives the language set from Texts.
func (m *Message) PopulatedLanguages() []Language {
	langs := make([]Language, 0, len(m.Texts))
	for k, v := range m.Texts {
		if len(v) > 0 {
			langs = append(langs, Language(k))
		}
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
