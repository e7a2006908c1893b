package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore is the production implementation of every store interface.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        is_admin BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY, -- Opaque token
        user_id TEXT NOT NULL,
        expires_at DATETIME NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS profiles (
        user_id TEXT PRIMARY KEY,
        name TEXT,
        age INTEGER,
        gender TEXT,
        ethnicity TEXT,
        cancer_type TEXT,
        treatment_stage TEXT,
        diagnosis_date TEXT,
        typical_fatigue_level REAL,
        location TEXT,
        support_system TEXT,
        last_fatigue_asked_date TEXT,
        dynamic_profile TEXT NOT NULL DEFAULT '',
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS user_settings (
        user_id TEXT PRIMARY KEY,
        behavior_type TEXT NOT NULL,
        agentic_features BOOLEAN NOT NULL,
        chat_only BOOLEAN NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS ai_settings (
        key TEXT PRIMARY KEY CHECK (key = 'global'),
        model TEXT NOT NULL,
        temperature REAL NOT NULL,
        max_tokens INTEGER NOT NULL,
        system_prompt TEXT NOT NULL,
        enabled_tools TEXT NOT NULL,          -- JSON array of tool names
        verbosity TEXT NOT NULL,
        memory_enabled BOOLEAN NOT NULL,
        accessible_user_fields TEXT NOT NULL, -- JSON array of field names
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chats (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        initial_fatigue_level REAL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        chat_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        media TEXT, -- JSON, NULL when the reply carried no directives
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (chat_id) REFERENCES chats (id)
    );

    CREATE TABLE IF NOT EXISTS videos (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        url TEXT NOT NULL DEFAULT '',
        embed_url TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        tags TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS breathing_exercises (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        duration INTEGER NOT NULL,
        pattern TEXT NOT NULL,
        embed_code TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS quiz_questions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        question_text TEXT NOT NULL,
        question_order INTEGER NOT NULL,
        options TEXT NOT NULL, -- JSON array of {text, value}
        weight REAL NOT NULL DEFAULT 1.0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(username, passwordHash string, isAdmin bool) (*User, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		id, username, passwordHash, isAdmin, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetUserByUsername(username string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(id string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, username, password_hash, is_admin, created_at FROM users WHERE id = ?",
		id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query("SELECT id, username, password_hash, is_admin, created_at FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) DeleteUser(id string) error {
	// Chat history is keyed by chat, so collect the user's chats first.
	rows, err := s.db.Query("SELECT id FROM chats WHERE user_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to query user chats: %w", err)
	}
	var chatIDs []string
	for rows.Next() {
		var chatID string
		if err := rows.Scan(&chatID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan chat id: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}
	rows.Close()

	for _, chatID := range chatIDs {
		if _, err := s.db.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}
	}
	for _, stmt := range []string{
		"DELETE FROM chats WHERE user_id = ?",
		"DELETE FROM profiles WHERE user_id = ?",
		"DELETE FROM user_settings WHERE user_id = ?",
		"DELETE FROM sessions WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := s.db.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) HasAdmin() (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE is_admin = TRUE").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return count > 0, nil
}

// Session methods

func (s *SQLiteStore) CreateSession(userID, token string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(token string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		"SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ? AND expires_at > ?",
		token, time.Now()).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Unknown or expired
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteUserSessions(userID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// Profile methods

const profileColumns = `user_id, name, age, gender, ethnicity, cancer_type, treatment_stage,
        diagnosis_date, typical_fatigue_level, location, support_system,
        last_fatigue_asked_date, dynamic_profile, updated_at`

func (s *SQLiteStore) GetProfile(userID string) (*Profile, error) {
	row := s.db.QueryRow("SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID)
	profile, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No profile yet
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return profile, nil
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var name, gender, ethnicity, cancerType, treatmentStage, diagnosisDate, location, supportSystem, lastAsked sql.NullString
	var age sql.NullInt64
	var fatigue sql.NullFloat64
	err := row.Scan(&p.UserID, &name, &age, &gender, &ethnicity, &cancerType, &treatmentStage,
		&diagnosisDate, &fatigue, &location, &supportSystem, &lastAsked, &p.DynamicProfile, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Name = nullableString(name)
	p.Gender = nullableString(gender)
	p.Ethnicity = nullableString(ethnicity)
	p.CancerType = nullableString(cancerType)
	p.TreatmentStage = nullableString(treatmentStage)
	p.DiagnosisDate = nullableString(diagnosisDate)
	p.Location = nullableString(location)
	p.SupportSystem = nullableString(supportSystem)
	p.LastFatigueAskedDate = nullableString(lastAsked)
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if fatigue.Valid {
		v := fatigue.Float64
		p.TypicalFatigueLevel = &v
	}
	return &p, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (s *SQLiteStore) UpsertProfile(userID string, upd ProfileUpdate) (*Profile, error) {
	existing, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	merged := Profile{UserID: userID}
	if existing != nil {
		merged = *existing
	}
	if upd.Name != nil {
		merged.Name = upd.Name
	}
	if upd.Age != nil {
		merged.Age = upd.Age
	}
	if upd.Gender != nil {
		merged.Gender = upd.Gender
	}
	if upd.Ethnicity != nil {
		merged.Ethnicity = upd.Ethnicity
	}
	if upd.CancerType != nil {
		merged.CancerType = upd.CancerType
	}
	if upd.TreatmentStage != nil {
		merged.TreatmentStage = upd.TreatmentStage
	}
	if upd.DiagnosisDate != nil {
		merged.DiagnosisDate = upd.DiagnosisDate
	}
	if upd.TypicalFatigueLevel != nil {
		merged.TypicalFatigueLevel = upd.TypicalFatigueLevel
	}
	if upd.Location != nil {
		merged.Location = upd.Location
	}
	if upd.SupportSystem != nil {
		merged.SupportSystem = upd.SupportSystem
	}
	merged.UpdatedAt = time.Now()

	_, err = s.db.Exec(`INSERT OR REPLACE INTO profiles (`+profileColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		merged.UserID, merged.Name, merged.Age, merged.Gender, merged.Ethnicity,
		merged.CancerType, merged.TreatmentStage, merged.DiagnosisDate,
		merged.TypicalFatigueLevel, merged.Location, merged.SupportSystem,
		merged.LastFatigueAskedDate, merged.DynamicProfile, merged.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &merged, nil
}

func (s *SQLiteStore) UpdateDynamicProfile(userID, text string) error {
	res, err := s.db.Exec(
		"UPDATE profiles SET dynamic_profile = ?, updated_at = ? WHERE user_id = ?",
		text, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update dynamic profile: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// First extraction before the user ever saved a static profile.
		if _, err := s.UpsertProfile(userID, ProfileUpdate{}); err != nil {
			return err
		}
		_, err = s.db.Exec(
			"UPDATE profiles SET dynamic_profile = ?, updated_at = ? WHERE user_id = ?",
			text, time.Now(), userID)
		if err != nil {
			return fmt.Errorf("failed to update dynamic profile: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetDynamicProfile(userID string) (string, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}
	return profile.DynamicProfile, nil
}

func (s *SQLiteStore) DeleteProfile(userID string) error {
	_, err := s.db.Exec("DELETE FROM profiles WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetLastFatigueAskedDate(userID, date string) error {
	_, err := s.db.Exec(
		"UPDATE profiles SET last_fatigue_asked_date = ?, updated_at = ? WHERE user_id = ?",
		date, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last fatigue asked date: %w", err)
	}
	return nil
}

// Settings methods

func (s *SQLiteStore) GetUserSettings(userID string) (*UserSettings, error) {
	var settings UserSettings
	err := s.db.QueryRow(
		"SELECT user_id, behavior_type, agentic_features, chat_only, updated_at FROM user_settings WHERE user_id = ?",
		userID).Scan(&settings.UserID, &settings.BehaviorType, &settings.AgenticFeatures, &settings.ChatOnly, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		defaults := DefaultUserSettings(userID)
		defaults.UpdatedAt = time.Now()
		_, err = s.db.Exec(
			"INSERT INTO user_settings (user_id, behavior_type, agentic_features, chat_only, updated_at) VALUES (?, ?, ?, ?, ?)",
			defaults.UserID, defaults.BehaviorType, defaults.AgenticFeatures, defaults.ChatOnly, defaults.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert default user settings: %w", err)
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) UpdateUserSettings(userID string, upd UserSettingsUpdate) (*UserSettings, error) {
	settings, err := s.GetUserSettings(userID)
	if err != nil {
		return nil, err
	}
	if upd.BehaviorType != nil {
		settings.BehaviorType = *upd.BehaviorType
	}
	if upd.AgenticFeatures != nil {
		settings.AgenticFeatures = *upd.AgenticFeatures
	}
	if upd.ChatOnly != nil {
		settings.ChatOnly = *upd.ChatOnly
	}
	settings.UpdatedAt = time.Now()
	_, err = s.db.Exec(
		"UPDATE user_settings SET behavior_type = ?, agentic_features = ?, chat_only = ?, updated_at = ? WHERE user_id = ?",
		settings.BehaviorType, settings.AgenticFeatures, settings.ChatOnly, settings.UpdatedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user settings: %w", err)
	}
	return settings, nil
}

func (s *SQLiteStore) DeleteUserSettings(userID string) error {
	_, err := s.db.Exec("DELETE FROM user_settings WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAISettings() (*AISettings, error) {
	var settings AISettings
	var toolsJSON, fieldsJSON string
	err := s.db.QueryRow(
		`SELECT model, temperature, max_tokens, system_prompt, enabled_tools, verbosity,
            memory_enabled, accessible_user_fields, updated_at FROM ai_settings WHERE key = 'global'`).
		Scan(&settings.Model, &settings.Temperature, &settings.MaxTokens, &settings.SystemPrompt,
			&toolsJSON, &settings.Verbosity, &settings.MemoryEnabled, &fieldsJSON, &settings.UpdatedAt)
	if err == sql.ErrNoRows {
		defaults := DefaultAISettings()
		defaults.UpdatedAt = time.Now()
		if err := s.writeAISettings(defaults, true); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ai settings: %w", err)
	}
	if err := json.Unmarshal([]byte(toolsJSON), &settings.EnabledTools); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enabled tools: %w", err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &settings.AccessibleUserFields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accessible user fields: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) writeAISettings(settings *AISettings, insert bool) error {
	toolsJSON, err := json.Marshal(settings.EnabledTools)
	if err != nil {
		return fmt.Errorf("failed to marshal enabled tools: %w", err)
	}
	fieldsJSON, err := json.Marshal(settings.AccessibleUserFields)
	if err != nil {
		return fmt.Errorf("failed to marshal accessible user fields: %w", err)
	}
	if insert {
		_, err = s.db.Exec(
			`INSERT INTO ai_settings (key, model, temperature, max_tokens, system_prompt, enabled_tools,
                verbosity, memory_enabled, accessible_user_fields, updated_at)
             VALUES ('global', ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			settings.Model, settings.Temperature, settings.MaxTokens, settings.SystemPrompt,
			string(toolsJSON), settings.Verbosity, settings.MemoryEnabled, string(fieldsJSON), settings.UpdatedAt)
	} else {
		_, err = s.db.Exec(
			`UPDATE ai_settings SET model = ?, temperature = ?, max_tokens = ?, system_prompt = ?,
                enabled_tools = ?, verbosity = ?, memory_enabled = ?, accessible_user_fields = ?, updated_at = ?
             WHERE key = 'global'`,
			settings.Model, settings.Temperature, settings.MaxTokens, settings.SystemPrompt,
			string(toolsJSON), settings.Verbosity, settings.MemoryEnabled, string(fieldsJSON), settings.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to write ai settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateAISettings(upd AISettingsUpdate) (*AISettings, error) {
	settings, err := s.GetAISettings()
	if err != nil {
		return nil, err
	}
	if upd.Model != nil {
		settings.Model = *upd.Model
	}
	if upd.Temperature != nil {
		settings.Temperature = *upd.Temperature
	}
	if upd.MaxTokens != nil {
		settings.MaxTokens = *upd.MaxTokens
	}
	if upd.SystemPrompt != nil {
		settings.SystemPrompt = *upd.SystemPrompt
	}
	if upd.EnabledTools != nil {
		settings.EnabledTools = *upd.EnabledTools
	}
	if upd.Verbosity != nil {
		settings.Verbosity = *upd.Verbosity
	}
	if upd.MemoryEnabled != nil {
		settings.MemoryEnabled = *upd.MemoryEnabled
	}
	if upd.AccessibleUserFields != nil {
		settings.AccessibleUserFields = *upd.AccessibleUserFields
	}
	settings.UpdatedAt = time.Now()
	if err := s.writeAISettings(settings, false); err != nil {
		return nil, err
	}
	return settings, nil
}

// Chat methods

func (s *SQLiteStore) CreateChat(userID, title string, initialFatigueLevel *float64) (*Chat, error) {
	chatID := uuid.NewString()
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT INTO chats (id, user_id, title, initial_fatigue_level, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		chatID, userID, title, initialFatigueLevel, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	return &Chat{ID: chatID, UserID: userID, Title: title, InitialFatigueLevel: initialFatigueLevel, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetChat(chatID string) (*Chat, error) {
	var chat Chat
	var fatigue sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT id, user_id, title, initial_fatigue_level, created_at, updated_at FROM chats WHERE id = ?",
		chatID).Scan(&chat.ID, &chat.UserID, &chat.Title, &fatigue, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if fatigue.Valid {
		v := fatigue.Float64
		chat.InitialFatigueLevel = &v
	}
	return &chat, nil
}

func (s *SQLiteStore) ListChats(userID string, limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as no limit
	}
	rows, err := s.db.Query(
		"SELECT id, user_id, title, initial_fatigue_level, created_at, updated_at FROM chats WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chat Chat
		var fatigue sql.NullFloat64
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &fatigue, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		if fatigue.Valid {
			v := fatigue.Float64
			chat.InitialFatigueLevel = &v
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (s *SQLiteStore) UpdateChatTitle(chatID, title string) error {
	res, err := s.db.Exec("UPDATE chats SET title = ?, updated_at = ? WHERE id = ?", title, time.Now(), chatID)
	if err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat not found, title not updated")
	}
	return nil
}

func (s *SQLiteStore) DeleteChat(chatID string) error {
	if _, err := s.db.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM chats WHERE id = ?", chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

// Message methods

func (s *SQLiteStore) AddMessage(msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.Timestamp = time.Now()

	var mediaJSON sql.NullString
	if msg.Media != nil {
		b, err := json.Marshal(msg.Media)
		if err != nil {
			return fmt.Errorf("failed to marshal message media: %w", err)
		}
		mediaJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.Exec(
		"INSERT INTO messages (id, chat_id, role, content, media, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ChatID, msg.Role, msg.Content, mediaJSON, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	_, err = s.db.Exec("UPDATE chats SET updated_at = ? WHERE id = ?", msg.Timestamp, msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessages(chatID string) ([]Message, error) {
	rows, err := s.db.Query(
		"SELECT id, chat_id, role, content, media, timestamp FROM messages WHERE chat_id = ? ORDER BY timestamp ASC, id ASC",
		chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var mediaJSON sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &mediaJSON, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if mediaJSON.Valid && mediaJSON.String != "" {
			var media Media
			if err := json.Unmarshal([]byte(mediaJSON.String), &media); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message media: %w", err)
			}
			msg.Media = &media
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) CountMessages(chatID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM messages WHERE chat_id = ?", chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// Catalog methods

func (s *SQLiteStore) ListVideos() ([]VideoEntry, error) {
	return s.queryVideos("SELECT id, title, url, embed_url, category, tags, created_at FROM videos ORDER BY title ASC")
}

func (s *SQLiteStore) ListVideosByCategory(category string) ([]VideoEntry, error) {
	return s.queryVideos("SELECT id, title, url, embed_url, category, tags, created_at FROM videos WHERE category = ? ORDER BY title ASC", category)
}

func (s *SQLiteStore) queryVideos(query string, args ...any) ([]VideoEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []VideoEntry
	for rows.Next() {
		var v VideoEntry
		if err := rows.Scan(&v.ID, &v.Title, &v.URL, &v.EmbedURL, &v.Category, &v.Tags, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *SQLiteStore) AddVideo(v *VideoEntry) error {
	v.CreatedAt = time.Now()
	res, err := s.db.Exec(
		"INSERT INTO videos (title, url, embed_url, category, tags, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		v.Title, v.URL, v.EmbedURL, v.Category, v.Tags, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) DeleteVideo(id int64) error {
	_, err := s.db.Exec("DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListBreathingExercises() ([]BreathingEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, title, description, duration, pattern, embed_code, created_at FROM breathing_exercises ORDER BY title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query breathing exercises: %w", err)
	}
	defer rows.Close()

	var exercises []BreathingEntry
	for rows.Next() {
		var b BreathingEntry
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.Duration, &b.Pattern, &b.EmbedCode, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan breathing exercise row: %w", err)
		}
		exercises = append(exercises, b)
	}
	return exercises, rows.Err()
}

func (s *SQLiteStore) AddBreathingExercise(b *BreathingEntry) error {
	b.CreatedAt = time.Now()
	res, err := s.db.Exec(
		"INSERT INTO breathing_exercises (title, description, duration, pattern, embed_code, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		b.Title, b.Description, b.Duration, b.Pattern, b.EmbedCode, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert breathing exercise: %w", err)
	}
	b.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) DeleteBreathingExercise(id int64) error {
	_, err := s.db.Exec("DELETE FROM breathing_exercises WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete breathing exercise: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListQuizQuestions() ([]QuizQuestion, error) {
	rows, err := s.db.Query(
		"SELECT id, question_text, question_order, options, weight, created_at FROM quiz_questions ORDER BY question_order ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz questions: %w", err)
	}
	defer rows.Close()

	var questions []QuizQuestion
	for rows.Next() {
		var q QuizQuestion
		var optionsJSON string
		if err := rows.Scan(&q.ID, &q.Text, &q.Order, &optionsJSON, &q.Weight, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question row: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quiz options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *SQLiteStore) AddQuizQuestion(q *QuizQuestion) error {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz options: %w", err)
	}
	q.CreatedAt = time.Now()
	res, err := s.db.Exec(
		"INSERT INTO quiz_questions (question_text, question_order, options, weight, created_at) VALUES (?, ?, ?, ?, ?)",
		q.Text, q.Order, string(optionsJSON), q.Weight, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quiz question: %w", err)
	}
	q.ID, _ = res.LastInsertId()
	return nil
}
