package coach

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/untire/coach-server/internal/store"
)

// PromptInput is everything the composer needs for one turn. Composition is a
// pure function of this struct: no I/O, no hidden state, identical inputs
// produce byte-identical output.
type PromptInput struct {
	Profile        *store.Profile
	FatigueLevel   *float64
	Settings       *store.UserSettings
	DynamicProfile string
	AI             *store.AISettings
	Videos         []store.VideoEntry
	Breathing      []store.BreathingEntry
	UserMessage    string
	HasHistory     bool
}

// defaultPersona is used when the admin has cleared the configured base prompt.
const defaultPersona = `You are "Untire Coach," a warm, empathetic AI companion for adults experiencing cancer-related fatigue. Your role is to have flowing, supportive conversations that help patients feel heard and understood.`

// ComposePrompt assembles the single instruction string sent to the model.
func ComposePrompt(in PromptInput) string {
	var sections []string

	base := in.AI.SystemPrompt
	if base == "" {
		base = defaultPersona
	}
	sections = append(sections, base)

	if block := profileBlock(in.Profile, in.AI.AccessibleUserFields); block != "" {
		sections = append(sections, block)
	}

	if in.DynamicProfile != "" {
		sections = append(sections, "DYNAMIC PROFILE (learned from conversations):\n"+
			in.DynamicProfile+
			"\n\nUse this information to personalize your responses and remember important details about the user.")
	}

	if in.FatigueLevel != nil {
		sections = append(sections, fatigueGuidance(*in.FatigueLevel))
	}

	sections = append(sections, behaviorBlock(in.Settings))

	if in.Settings.AgenticFeatures && !in.Settings.ChatOnly {
		if block := agenticBlock(in.AI.EnabledTools); block != "" {
			sections = append(sections, block)
		}
	}

	sections = append(sections, approachBlock(in.FatigueLevel))
	sections = append(sections, verbosityBlock(in.AI.Verbosity))

	if len(in.Videos) > 0 {
		sections = append(sections, videoCatalogBlock(in.Videos))
	}
	if len(in.Breathing) > 0 {
		sections = append(sections, breathingCatalogBlock(in.Breathing))
	}

	if in.HasHistory && IsBriefMessage(in.UserMessage) {
		sections = append(sections, `NOTE: The user's last message was brief or vague (`+
			strconv.Quote(in.UserMessage)+
			`). Be PROACTIVE - start a meaningful topic, reference something from their profile, or ask about specific aspects of their day/energy/situation. Don't just acknowledge - engage!`)
	}

	return strings.Join(sections, "\n\n")
}

// briefMessages are throwaway openers that should trigger proactive guidance.
var briefMessages = map[string]bool{
	"hi": true, "hello": true, "hey": true, "ok": true, "okay": true,
	"yes": true, "no": true, "thanks": true, "thank you": true,
}

// IsBriefMessage reports whether a user message carries too little content to
// respond to directly. The caller must additionally check that the chat has
// prior turns: the very first message is never treated as brief.
func IsBriefMessage(message string) bool {
	trimmed := strings.TrimSpace(message)
	if briefMessages[strings.ToLower(trimmed)] {
		return true
	}
	return utf8.RuneCountInString(trimmed) < 10
}

func profileBlock(profile *store.Profile, accessibleFields []string) string {
	if profile == nil {
		return ""
	}
	accessible := make(map[string]bool, len(accessibleFields))
	for _, f := range accessibleFields {
		accessible[f] = true
	}

	var lines []string
	addString := func(field, label string, value *string) {
		if accessible[field] && value != nil && *value != "" {
			lines = append(lines, "- "+label+": "+*value)
		}
	}
	addString("name", "Name", profile.Name)
	if accessible["age"] && profile.Age != nil {
		lines = append(lines, "- Age: "+strconv.Itoa(*profile.Age))
	}
	addString("gender", "Gender", profile.Gender)
	addString("ethnicity", "Ethnicity", profile.Ethnicity)
	addString("cancer_type", "Cancer Type", profile.CancerType)
	addString("treatment_stage", "Treatment Stage", profile.TreatmentStage)
	addString("diagnosis_date", "Diagnosis Date", profile.DiagnosisDate)
	if accessible["fatigue_level"] && profile.TypicalFatigueLevel != nil {
		lines = append(lines, "- Typical fatigue level: "+formatFatigue(*profile.TypicalFatigueLevel)+"/10")
	}
	addString("location", "Location", profile.Location)
	addString("support_system", "Support System", profile.SupportSystem)

	if len(lines) == 0 {
		return ""
	}
	return "USER PROFILE:\n" + strings.Join(lines, "\n")
}

// formatFatigue renders a fatigue level without trailing zeros (7, 7.5).
func formatFatigue(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}

// fatigueGuidance selects one of four non-overlapping tiers. Boundary values
// 4, 6 and 8 select the higher tier.
func fatigueGuidance(level float64) string {
	value := formatFatigue(level)
	switch {
	case level >= 8.0:
		return `CRITICAL: The user's current fatigue level is ` + value + `/10, which indicates severe fatigue.
- Be extra gentle and validating - they are likely struggling significantly
- Focus on rest, self-compassion, and managing basic daily needs
- Avoid suggesting activities that require energy
- Emphasize that this level of fatigue is valid and they're not alone
- Be patient if responses are brief or they seem withdrawn`
	case level >= 6.0:
		return `IMPORTANT: The user's current fatigue level is ` + value + `/10, indicating moderate-to-severe fatigue.
- Acknowledge the significant impact this has on their daily life
- Focus on gentle strategies and realistic expectations
- Be understanding if they mention struggling with daily tasks
- Encourage pacing and rest breaks
- Validate the difficulty of managing moderate fatigue`
	case level >= 4.0:
		return `The user's current fatigue level is ` + value + `/10, indicating moderate fatigue.
- They may have some energy but still experience significant limitations
- Balance encouragement with realistic expectations
- Suggest gentle activities and pacing strategies
- Acknowledge that even moderate fatigue can be challenging`
	default:
		return `The user's current fatigue level is ` + value + `/10, indicating mild fatigue.
- They may have more capacity for activities and strategies
- Still be gentle and validate their experience
- Can suggest more active coping strategies while respecting their limits`
	}
}

func behaviorBlock(settings *store.UserSettings) string {
	behaviorType := settings.BehaviorType
	if behaviorType == "" {
		behaviorType = store.BehaviorEmpathetic
	}

	var guidance string
	switch behaviorType {
	case store.BehaviorPractical:
		guidance = "- Focus on actionable strategies\n- Be direct but kind\n- Offer concrete suggestions"
	case store.BehaviorEncouraging:
		guidance = "- Use positive, uplifting language\n- Highlight progress and strengths\n- Be motivational"
	default:
		// Unknown archetypes fall back to the empathetic guidance.
		guidance = "- Use warm, empathetic language\n- Show deep understanding and validation\n- Be gentle and supportive"
	}
	return "BEHAVIOR TYPE: " + behaviorType + "\n" + guidance
}

func agenticBlock(enabledTools []string) string {
	enabled := make(map[string]bool, len(enabledTools))
	for _, t := range enabledTools {
		enabled[t] = true
	}

	var lines []string
	if enabled["videos"] {
		lines = append(lines,
			"- You can suggest meditation videos when the user expresses stress, anxiety, or overwhelm",
			"- Use the format: [VIDEO:title:embed_url] to embed videos in your response")
	}
	if enabled["breathing"] {
		lines = append(lines,
			"- You can suggest breathing exercises when the user needs quick stress relief or relaxation",
			"- Use the format: [BREATHING:title:duration:pattern:embed_code] to embed breathing exercises")
	}
	if enabled["journaling"] {
		lines = append(lines,
			"- You can suggest journaling prompts for self-reflection",
			"- Use the format: [JOURNAL:prompt_text]")
	}
	if enabled["activity_tracking"] {
		lines = append(lines,
			"- You can help track daily activities and energy levels",
			"- Use the format: [ACTIVITY:type:duration:energy_level]")
	}
	if enabled["mood_tracking"] {
		lines = append(lines,
			"- You can help track mood and emotional states",
			"- Use the format: [MOOD:emotion:intensity:notes]")
	}
	if len(lines) == 0 {
		return ""
	}
	lines = append(lines,
		"- Only suggest tools when genuinely helpful, not in every response",
		"- Detect emotional states like stress, anxiety, worry, overwhelm, panic",
		"- When suggesting a tool, briefly explain why it might help")
	return "AGENTIC FEATURES ENABLED:\n" + strings.Join(lines, "\n")
}

func approachBlock(fatigueLevel *float64) string {
	lines := []string{
		`- Be PROACTIVE: If the user doesn't provide much information or says something vague like "hello" or "hi", take the initiative to start meaningful topics`,
		`- Use the dynamic profile to reference things you know about them (e.g., "How is your cat doing?" or "I remember you mentioned...")`,
		"- Ask thoughtful follow-up questions to better understand their situation",
		"- Be genuinely curious about their daily experience, energy patterns, and challenges",
		"- Guide conversations naturally through topics like sleep, activity levels, emotional state, support systems",
		"- Offer gentle, practical strategies when appropriate",
		"- Always validate their feelings and experiences",
	}
	if fatigueLevel != nil {
		lines = append(lines, "- Remember their current fatigue level ("+formatFatigue(*fatigueLevel)+"/10) and adapt your suggestions accordingly")
	}
	lines = append(lines,
		"- Update your understanding of the user based on what they share",
		"- When starting conversations or when user input is minimal, suggest specific topics or ask about things relevant to their profile")
	return "CONVERSATION APPROACH:\n" + strings.Join(lines, "\n")
}

func verbosityBlock(verbosity string) string {
	var length string
	switch verbosity {
	case "low":
		length = "RESPONSE LENGTH: Keep responses brief (50-100 words)"
	case "high":
		length = "RESPONSE LENGTH: Provide detailed, comprehensive responses (150-250 words)"
	default:
		length = "RESPONSE LENGTH: Keep responses conversational (100-180 words)"
	}
	return length + `
- Always end with a thoughtful question to continue the dialogue
- Use empathetic language that shows you're listening
- Be specific in your questions (not generic)
- Adapt your energy and suggestions to match their fatigue level
- Reference specific details from their profile when relevant to show you remember them
- If the user gives a brief response or doesn't provide much detail, be proactive and suggest topics or ask about specific aspects of their life based on what you know

IMPORTANT: This is educational support, not medical advice. Encourage them to discuss significant concerns with their healthcare team.

Focus on creating a supportive dialogue rather than just giving advice.`
}

func videoCatalogBlock(videos []store.VideoEntry) string {
	var b strings.Builder
	b.WriteString("AVAILABLE MEDITATION VIDEOS - USE THESE PROACTIVELY:\n")
	for _, v := range videos {
		b.WriteString("- " + v.Title + "\n")
		b.WriteString("  Format: [VIDEO:" + v.Title + ":" + v.EmbedURL + "]\n")
	}
	b.WriteString(`
WHEN TO USE VIDEOS:
- User mentions stress, anxiety, overwhelm, racing thoughts
- User needs help winding down or relaxing
- User asks for guided exercises or meditation
- After a difficult conversation, as a calming resource
- User mentions insomnia or sleep difficulties

HOW TO USE: Include [VIDEO:title:embed_url] naturally in your response.
Example: "I have a gentle meditation that might help. [VIDEO:10 Minute Guided Meditation:https://youtube.com/embed/xyz]"`)
	return b.String()
}

func breathingCatalogBlock(exercises []store.BreathingEntry) string {
	var b strings.Builder
	b.WriteString("AVAILABLE BREATHING EXERCISES - OFFER THESE WHEN HELPFUL:\n")
	for _, e := range exercises {
		b.WriteString("- " + e.Title + " (" + strconv.Itoa(e.Duration) + "s)\n")
		b.WriteString("  Pattern: " + e.Pattern + "\n")
		b.WriteString("  Format: [BREATHING:" + e.Title + ":" + strconv.Itoa(e.Duration) + ":" + e.Pattern + ":" + e.EmbedCode + "]\n")
	}
	b.WriteString(`
WHEN TO USE BREATHING EXERCISES:
- User mentions anxiety, panic, or feeling overwhelmed
- Quick relief for immediate stress
- User feels tense or restless
- Before bed for better sleep
- During fatigue spikes for an energy reset
- When the user needs grounding

HOW TO USE: Include [BREATHING:title:duration:pattern:embed_code] in your response.
Example: "Let's take a moment to breathe together. [BREATHING:Box Breathing:60:Inhale 4s, Hold 4s, Exhale 4s, Hold 4s:]"`)
	return b.String()
}
