package store

import "time"

type User struct {
	ID           string    `json:"id"` // UUID
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `json:"id"` // Opaque token, also the cookie value
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds per-user static facts. All fields except the identifiers are
// optional; a nil pointer means the user never provided the field.
type Profile struct {
	UserID               string    `json:"user_id"`
	Name                 *string   `json:"name"`
	Age                  *int      `json:"age"`
	Gender               *string   `json:"gender"`
	Ethnicity            *string   `json:"ethnicity"`
	CancerType           *string   `json:"cancer_type"`
	TreatmentStage       *string   `json:"treatment_stage"`
	DiagnosisDate        *string   `json:"diagnosis_date"`
	TypicalFatigueLevel  *float64  `json:"current_fatigue_level"`
	Location             *string   `json:"location"`
	SupportSystem        *string   `json:"support_system"`
	LastFatigueAskedDate *string   `json:"last_fatigue_asked_date"`
	DynamicProfile       string    `json:"dynamic_profile"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial profile update. Nil fields are left
// unchanged on merge.
type ProfileUpdate struct {
	Name                *string  `json:"name"`
	Age                 *int     `json:"age"`
	Gender              *string  `json:"gender"`
	Ethnicity           *string  `json:"ethnicity"`
	CancerType          *string  `json:"cancer_type"`
	TreatmentStage      *string  `json:"treatment_stage"`
	DiagnosisDate       *string  `json:"diagnosis_date"`
	TypicalFatigueLevel *float64 `json:"current_fatigue_level"`
	Location            *string  `json:"location"`
	SupportSystem       *string  `json:"support_system"`
}

// Behavior archetypes for UserSettings.BehaviorType.
const (
	BehaviorEmpathetic  = "empathetic"
	BehaviorPractical   = "practical"
	BehaviorEncouraging = "encouraging"
)

type UserSettings struct {
	UserID          string    `json:"user_id"`
	BehaviorType    string    `json:"behavior_type"`
	AgenticFeatures bool      `json:"agentic_features"`
	ChatOnly        bool      `json:"chat_only"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserSettingsUpdate struct {
	BehaviorType    *string `json:"behavior_type"`
	AgenticFeatures *bool   `json:"agentic_features"`
	ChatOnly        *bool   `json:"chat_only"`
}

// AISettings is the single, admin-controlled global configuration row.
type AISettings struct {
	Model                string    `json:"model"`
	Temperature          float64   `json:"temperature"`
	MaxTokens            int       `json:"max_tokens"`
	SystemPrompt         string    `json:"system_prompt"`
	EnabledTools         []string  `json:"enabled_tools"`
	Verbosity            string    `json:"verbosity"` // low | medium | high
	MemoryEnabled        bool      `json:"memory_enabled"`
	AccessibleUserFields []string  `json:"accessible_user_fields"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type AISettingsUpdate struct {
	Model                *string   `json:"model"`
	Temperature          *float64  `json:"temperature"`
	MaxTokens            *int      `json:"max_tokens"`
	SystemPrompt         *string   `json:"system_prompt"`
	EnabledTools         *[]string `json:"enabled_tools"`
	Verbosity            *string   `json:"verbosity"`
	MemoryEnabled        *bool     `json:"memory_enabled"`
	AccessibleUserFields *[]string `json:"accessible_user_fields"`
}

type Chat struct {
	ID     string `json:"id"` // UUID
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	// InitialFatigueLevel is the fatigue anchor fixed at chat creation.
	// It is never updated afterwards.
	InitialFatigueLevel *float64  `json:"initial_fatigue_level"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        string    `json:"id"` // UUID
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Media     *Media    `json:"media"` // Only on assistant messages, nil when no directives
	Timestamp time.Time `json:"timestamp"`
}

// Media is the structured payload extracted from an assistant reply. Either
// list marshals as null when empty so clients can rely on the original shape.
type Media struct {
	Videos    []VideoSuggestion     `json:"videos"`
	Breathing []BreathingSuggestion `json:"breathing"`
}

type VideoSuggestion struct {
	Title    string `json:"title"`
	EmbedURL string `json:"embedUrl"`
}

type BreathingSuggestion struct {
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
	Pattern         string `json:"pattern"`
	EmbedCode       string `json:"embedCode"`
}

type VideoEntry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	EmbedURL  string    `json:"embed_url"`
	Category  string    `json:"category"`
	Tags      string    `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type BreathingEntry struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"` // seconds
	Pattern     string    `json:"pattern"`
	EmbedCode   string    `json:"embed_code"`
	CreatedAt   time.Time `json:"created_at"`
}

type QuizQuestion struct {
	ID        int64        `json:"id"`
	Text      string       `json:"question_text"`
	Order     int          `json:"question_order"`
	Options   []QuizOption `json:"options"`
	Weight    float64      `json:"weight"`
	CreatedAt time.Time    `json:"created_at"`
}

type QuizOption struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}
