package coach

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/untire/coach-server/internal/llm"
	"github.com/untire/coach-server/internal/store"
)

const (
	extractionModel       = "gpt-4o"
	extractionTemperature = 0.3
	extractionMaxTokens   = 400
	extractionWindow      = 20
	extractionTimeout     = 30 * time.Second

	extractionSystemPrompt = "You are a profile extraction assistant. Extract factual information from conversations."
)

type profileUpdateJob struct {
	UserID string
	ChatID string
}

// ProfileUpdater maintains the model-derived dynamic profile off the request
// path. Turns enqueue a job after every assistant reply; a single worker
// decides whether to run an extraction (memory enabled, even message count of
// at least two) so the cadence is rechecked against current state, not the
// state at enqueue time. A full queue drops the job: the next turn enqueues
// again, so at most one extraction cycle is skipped.
type ProfileUpdater struct {
	profiles store.ProfileStore
	chats    store.ChatStore
	settings store.SettingsStore
	client   llm.Client

	jobs chan profileUpdateJob
	wg   sync.WaitGroup
}

func NewProfileUpdater(profiles store.ProfileStore, chats store.ChatStore, settings store.SettingsStore, client llm.Client, queueSize int) *ProfileUpdater {
	if queueSize < 1 {
		queueSize = 1
	}
	return &ProfileUpdater{
		profiles: profiles,
		chats:    chats,
		settings: settings,
		client:   client,
		jobs:     make(chan profileUpdateJob, queueSize),
	}
}

func (u *ProfileUpdater) Start() {
	u.wg.Add(1)
	go u.run()
}

// Stop drains the queue and waits for the worker to finish.
func (u *ProfileUpdater) Stop() {
	close(u.jobs)
	u.wg.Wait()
}

// Enqueue schedules a profile update check. It never blocks; it reports
// whether the job was accepted.
func (u *ProfileUpdater) Enqueue(userID, chatID string) bool {
	select {
	case u.jobs <- profileUpdateJob{UserID: userID, ChatID: chatID}:
		return true
	default:
		log.Printf("Profile update queue full, dropping job for chat %s", chatID)
		return false
	}
}

func (u *ProfileUpdater) run() {
	defer u.wg.Done()
	for job := range u.jobs {
		u.process(job)
	}
}

// process runs one update check. Failures are logged and dropped; the dynamic
// profile is best-effort state and must never affect the chat itself.
func (u *ProfileUpdater) process(job profileUpdateJob) {
	ai, err := u.settings.GetAISettings()
	if err != nil {
		log.Printf("Profile update: failed to load AI settings: %v", err)
		return
	}
	if !ai.MemoryEnabled {
		return
	}

	count, err := u.chats.CountMessages(job.ChatID)
	if err != nil {
		log.Printf("Profile update: failed to count messages for chat %s: %v", job.ChatID, err)
		return
	}
	if count < 2 || count%2 != 0 {
		return
	}

	current, err := u.profiles.GetDynamicProfile(job.UserID)
	if err != nil {
		log.Printf("Profile update: failed to load dynamic profile for user %s: %v", job.UserID, err)
		return
	}

	messages, err := u.chats.GetMessages(job.ChatID)
	if err != nil {
		log.Printf("Profile update: failed to load messages for chat %s: %v", job.ChatID, err)
		return
	}
	if len(messages) > extractionWindow {
		messages = messages[len(messages)-extractionWindow:]
	}

	prompt := buildExtractionPrompt(current, messages)

	ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
	defer cancel()
	result, err := u.client.Complete(ctx, llm.Request{
		System:      extractionSystemPrompt,
		Messages:    []llm.Message{{Role: store.RoleUser, Content: prompt}},
		Model:       extractionModel,
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		log.Printf("Profile update: extraction call failed for user %s: %v", job.UserID, err)
		return
	}

	updated := strings.TrimSpace(result)
	if updated == "" || updated == current {
		return
	}

	if err := u.profiles.UpdateDynamicProfile(job.UserID, updated); err != nil {
		log.Printf("Profile update: failed to store dynamic profile for user %s: %v", job.UserID, err)
		return
	}
	log.Printf("Updated dynamic profile for user %s", job.UserID)
}

func buildExtractionPrompt(current string, messages []store.Message) string {
	var b strings.Builder
	b.WriteString("Analyze the following conversation and extract key information about the user. Update or create a profile that includes:\n")
	b.WriteString("- Personal details mentioned (family, work, hobbies, interests)\n")
	b.WriteString("- Health-related information (treatment stage, symptoms, medications mentioned)\n")
	b.WriteString("- Emotional patterns and coping strategies\n")
	b.WriteString("- Preferences and dislikes\n")
	b.WriteString("- Support systems mentioned\n")
	b.WriteString("- Daily routines or challenges\n")
	b.WriteString("- Goals or concerns expressed\n\n")

	b.WriteString("Current profile: ")
	if current == "" {
		b.WriteString("None")
	} else {
		b.WriteString(current)
	}
	b.WriteString("\n\nConversation:\n")

	for _, m := range messages {
		if m.Role == store.RoleAssistant {
			b.WriteString("Coach: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString("\nReturn ONLY a concise profile summary (max 300 words) that captures the most important information about this user. Focus on facts and patterns, not interpretations.")
	return b.String()
}
