package fields

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	// ErrChoiceSourceNotFound means the configured source type itself does
	// not exist. This is a configuration fault and fails the resolve.
	ErrChoiceSourceNotFound = errors.New("choice source not found")

	// ErrInvalidFilter is returned by sources when a filter references an
	// attribute the source does not have. Resolution degrades to an empty
	// choice list instead of failing.
	ErrInvalidFilter = errors.New("invalid choice filter")
)

// ChoiceRecord is one record of an external choice source.
type ChoiceRecord struct {
	ID    string
	Label string
}

// ChoiceSource lists selectable records, optionally narrowed by an attribute
// filter map.
type ChoiceSource interface {
	List(filter map[string]any) ([]ChoiceRecord, error)
}

var choiceSources = struct {
	mu     sync.RWMutex
	byName map[string]ChoiceSource
}{byName: map[string]ChoiceSource{}}

// RegisterChoiceSource makes a source available to dynamic select fields
// under the given type name. Re-registering a name replaces the source.
func RegisterChoiceSource(name string, src ChoiceSource) {
	choiceSources.mu.Lock()
	defer choiceSources.mu.Unlock()
	choiceSources.byName[name] = src
}

// DynamicChoices resolves choices against a registered source. The choice
// value embeds source type and record ID so it can be resolved back to the
// original record. An unknown source fails hard; an invalid filter fails soft
// with an empty list.
func DynamicChoices(source string, filter map[string]any) ([]Choice, error) {
	choiceSources.mu.RLock()
	src, ok := choiceSources.byName[source]
	choiceSources.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChoiceSourceNotFound, source)
	}

	records, err := src.List(filter)
	if err != nil {
		if errors.Is(err, ErrInvalidFilter) {
			log.Printf("choice source %q: %v", source, err)
			return []Choice{}, nil
		}
		return nil, err
	}

	choices := make([]Choice, 0, len(records))
	for _, rec := range records {
		choices = append(choices, Choice{
			Value: fmt.Sprintf("src_%s_%s", source, rec.ID),
			Label: rec.Label,
		})
	}
	return choices, nil
}
