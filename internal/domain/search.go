package domain

import (
	"encoding/base64"
	"fmt"

	"github.com/rs/xid"

	"github.com/heartmarshall/writing/pkg/colmap"
)

// SearchDocument is what the search engine holds for one published
// (creation, language) pair. ID is stable across versions.
type SearchDocument struct {
	ID           string   `json:"id"`
	GID          string   `json:"gid"`
	CID          string   `json:"cid"`
	Language     string   `json:"language"`
	Version      int16    `json:"version"`
	Original     bool     `json:"original"`
	FromLanguage string   `json:"from_language,omitempty"`
	Model        string   `json:"model,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Cover        string   `json:"cover,omitempty"`
	Genre        []string `json:"genre,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	License      string   `json:"license,omitempty"`
	PublishedDay string   `json:"published_day"`
	UpdatedAt    int64    `json:"updated_at"`
}

// SearchKey returns the document id of (cid, language): the base64url form
// of the CBOR array [cid bytes, language].
func SearchKey(cid xid.ID, lang Language) (string, error) {
	b, err := colmap.MarshalCBOR([]any{cid.Bytes(), string(lang)})
	if err != nil {
		return "", fmt.Errorf("encode search key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSearchDocument builds the document of a published publication whose
// index row lives in day.
func NewSearchDocument(p *Publication, day Day) (SearchDocument, error) {
	id, err := SearchKey(p.CID, p.Language)
	if err != nil {
		return SearchDocument{}, err
	}
	return SearchDocument{
		ID:           id,
		GID:          p.GID.String(),
		CID:          p.CID.String(),
		Language:     string(p.Language),
		Version:      p.Version,
		Original:     p.IsOriginal(),
		FromLanguage: string(p.FromLanguage),
		Model:        p.Model,
		Title:        p.Title,
		Description:  p.Description,
		Summary:      p.Summary,
		Cover:        p.Cover,
		Genre:        p.Genre,
		Keywords:     p.Keywords,
		Authors:      p.Authors,
		License:      p.License,
		PublishedDay: day.String(),
		UpdatedAt:    p.UpdatedAt,
	}, nil
}
