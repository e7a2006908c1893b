// Package coach implements the conversation turn pipeline: resolving a user's
// effective settings, composing the model instruction, parsing directive tags
// out of the reply, and keeping the dynamic profile fresh in the background.
package coach

import (
	"github.com/untire/coach-server/internal/store"
)

// TurnContext is the immutable view of everything prompt composition needs
// for a single turn.
type TurnContext struct {
	Profile        *store.Profile
	FatigueLevel   *float64
	Settings       *store.UserSettings
	DynamicProfile string
	AI             *store.AISettings
}

// Resolver builds TurnContexts. It only reads; missing settings rows are
// lazily created with defaults by the stores themselves.
type Resolver struct {
	profiles store.ProfileStore
	settings store.SettingsStore
}

func NewResolver(profiles store.ProfileStore, settings store.SettingsStore) *Resolver {
	return &Resolver{profiles: profiles, settings: settings}
}

// Resolve assembles the turn context for a user. The effective fatigue level
// is the chat's anchor when the chat carries one, else the profile's typical
// level, else nothing (no fatigue guidance is emitted).
func (r *Resolver) Resolve(userID string, chat *store.Chat) (*TurnContext, error) {
	profile, err := r.profiles.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	userSettings, err := r.settings.GetUserSettings(userID)
	if err != nil {
		return nil, err
	}
	aiSettings, err := r.settings.GetAISettings()
	if err != nil {
		return nil, err
	}

	var fatigueLevel *float64
	if chat != nil && chat.InitialFatigueLevel != nil {
		fatigueLevel = chat.InitialFatigueLevel
	} else if profile != nil && profile.TypicalFatigueLevel != nil {
		fatigueLevel = profile.TypicalFatigueLevel
	}

	var dynamicProfile string
	if profile != nil {
		dynamicProfile = profile.DynamicProfile
	}

	return &TurnContext{
		Profile:        profile,
		FatigueLevel:   fatigueLevel,
		Settings:       userSettings,
		DynamicProfile: dynamicProfile,
		AI:             aiSettings,
	}, nil
}
