// Package store defines the persistence contracts for the coach server and a
// single SQLite implementation of them. The core pipeline only ever talks to
// these interfaces.
package store

import "time"

type UserStore interface {
	CreateUser(username, passwordHash string, isAdmin bool) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByID(id string) (*User, error)
	ListUsers() ([]User, error)
	// DeleteUser removes the user and everything they own: profile, chats,
	// messages, settings, sessions.
	DeleteUser(id string) error
	HasAdmin() (bool, error)
}

type SessionStore interface {
	CreateSession(userID, token string, expiresAt time.Time) error
	// GetSession returns nil for unknown or expired tokens.
	GetSession(token string) (*Session, error)
	DeleteSession(token string) error
	DeleteUserSessions(userID string) error
}

type ProfileStore interface {
	// GetProfile returns nil when the user has no profile yet.
	GetProfile(userID string) (*Profile, error)
	// UpsertProfile creates the profile on first write and merges the given
	// partial update into it: nil fields are left unchanged.
	UpsertProfile(userID string, upd ProfileUpdate) (*Profile, error)
	// UpdateDynamicProfile overwrites the model-derived profile text wholesale.
	UpdateDynamicProfile(userID, text string) error
	GetDynamicProfile(userID string) (string, error)
	SetLastFatigueAskedDate(userID, date string) error
	DeleteProfile(userID string) error
}

type SettingsStore interface {
	// GetUserSettings lazily creates a row with defaults on first access.
	GetUserSettings(userID string) (*UserSettings, error)
	UpdateUserSettings(userID string, upd UserSettingsUpdate) (*UserSettings, error)
	// GetAISettings returns the global singleton row, creating it with
	// defaults on first access.
	GetAISettings() (*AISettings, error)
	UpdateAISettings(upd AISettingsUpdate) (*AISettings, error)
	// DeleteUserSettings removes the user's row; the next read recreates it
	// with defaults.
	DeleteUserSettings(userID string) error
}

type ChatStore interface {
	CreateChat(userID, title string, initialFatigueLevel *float64) (*Chat, error)
	// GetChat returns nil when the chat does not exist.
	GetChat(chatID string) (*Chat, error)
	// ListChats returns the user's chats, most recently updated first. A limit
	// of zero or less means no limit.
	ListChats(userID string, limit int) ([]Chat, error)
	UpdateChatTitle(chatID, title string) error
	DeleteChat(chatID string) error
	AddMessage(msg *Message) error
	// GetMessages returns the chat's messages ordered by creation time.
	GetMessages(chatID string) ([]Message, error)
	CountMessages(chatID string) (int, error)
}

type CatalogStore interface {
	ListVideos() ([]VideoEntry, error)
	ListVideosByCategory(category string) ([]VideoEntry, error)
	AddVideo(v *VideoEntry) error
	DeleteVideo(id int64) error
	ListBreathingExercises() ([]BreathingEntry, error)
	AddBreathingExercise(b *BreathingEntry) error
	DeleteBreathingExercise(id int64) error
	ListQuizQuestions() ([]QuizQuestion, error)
	AddQuizQuestion(q *QuizQuestion) error
}

// DefaultUserSettings is the row created on first access to a user's settings.
func DefaultUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:          userID,
		BehaviorType:    BehaviorEmpathetic,
		AgenticFeatures: true,
		ChatOnly:        false,
	}
}

// DefaultAISettings is the global row created on first access.
func DefaultAISettings() *AISettings {
	return &AISettings{
		Model:         "gpt-5.1",
		Temperature:   0.8,
		MaxTokens:     500,
		SystemPrompt:  DefaultSystemPrompt,
		EnabledTools:  []string{"videos", "breathing", "quiz", "journaling", "activity_tracking"},
		Verbosity:     "medium",
		MemoryEnabled: true,
		AccessibleUserFields: []string{
			"name", "age", "gender", "ethnicity", "cancer_type", "treatment_stage",
			"diagnosis_date", "fatigue_level", "location", "support_system",
		},
	}
}

// DefaultSystemPrompt is the admin-editable base instruction stored in the
// AISettings row on first access.
const DefaultSystemPrompt = `You are "Untire Coach," a warm, empathetic AI companion for adults experiencing cancer-related fatigue. Your role is to have flowing, supportive conversations that help patients feel heard and understood.

CONVERSATION APPROACH:
- Be PROACTIVE: If the user doesn't provide much information, take the initiative to start meaningful topics
- Use the dynamic profile to reference things you know about them
- Ask thoughtful follow-up questions to better understand their situation
- Be genuinely curious about their daily experience, energy patterns, and challenges
- Guide conversations naturally through topics like sleep, activity levels, emotional state, support systems
- Offer gentle, practical strategies when appropriate
- Always validate their feelings and experiences

RESPONSE STYLE:
- Keep responses conversational (100-180 words)
- Always end with a thoughtful question to continue the dialogue
- Use empathetic language that shows you're listening
- Be specific in your questions (not generic)
- Reference specific details from their profile when relevant

IMPORTANT: This is educational support, not medical advice. Encourage them to discuss significant concerns with their healthcare team.`
