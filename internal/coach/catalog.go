package coach

import (
	"github.com/untire/coach-server/internal/store"
)

// CatalogProvider supplies the tool catalogs the model may draw suggestions
// from. Catalogs are exposed whole; the model picks, not the server.
type CatalogProvider struct {
	catalog store.CatalogStore
}

func NewCatalogProvider(catalog store.CatalogStore) *CatalogProvider {
	return &CatalogProvider{catalog: catalog}
}

// AvailableTools returns the full video and breathing catalogs for a turn.
// Both come back empty when the user has agentic features off or is in
// chat-only mode; each is additionally gated by the globally enabled tool set.
func (p *CatalogProvider) AvailableTools(tc *TurnContext) ([]store.VideoEntry, []store.BreathingEntry, error) {
	if !tc.Settings.AgenticFeatures || tc.Settings.ChatOnly {
		return nil, nil, nil
	}

	enabled := make(map[string]bool, len(tc.AI.EnabledTools))
	for _, t := range tc.AI.EnabledTools {
		enabled[t] = true
	}

	var videos []store.VideoEntry
	var breathing []store.BreathingEntry
	var err error

	if enabled["videos"] {
		videos, err = p.catalog.ListVideos()
		if err != nil {
			return nil, nil, err
		}
	}
	if enabled["breathing"] {
		breathing, err = p.catalog.ListBreathingExercises()
		if err != nil {
			return nil, nil, err
		}
	}
	return videos, breathing, nil
}
