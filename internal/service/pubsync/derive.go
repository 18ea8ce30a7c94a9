package pubsync

import (
	"fmt"

	"github.com/heartmarshall/writing/internal/domain"
)

// Action is what the search engine must do for one index row.
type Action int8

const (
	ActionUpsert Action = iota
	ActionRetract
)

func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionRetract:
		return "retract"
	default:
		return fmt.Sprintf("action(%d)", int8(a))
	}
}

// Decision is the outcome of deriving one index row.
type Decision struct {
	Entry  domain.PubIndexEntry
	Action Action
	// Key is the search document id of (cid, language).
	Key string
	// Doc is set for ActionUpsert.
	Doc domain.SearchDocument
	// Repair is the version the index row must be repointed to, or 0.
	Repair int16
}

// Derive decides the search state of entry from the current versions of its
// (cid, language) pair. The highest published version wins; with none, the
// document is retracted. It depends on nothing but its arguments.
func Derive(entry domain.PubIndexEntry, versions []domain.Publication) (Decision, error) {
	key, err := domain.SearchKey(entry.CID, entry.Language)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Entry: entry, Key: key, Action: ActionRetract}

	best := domain.LatestPublished(versions)
	if best == nil {
		return d, nil
	}
	doc, err := domain.NewSearchDocument(best, entry.Day)
	if err != nil {
		return Decision{}, err
	}
	d.Action = ActionUpsert
	d.Doc = doc
	if best.Version != entry.Version {
		d.Repair = best.Version
	}
	return d, nil
}
