package coach

import (
	"strconv"
	"strings"

	"github.com/untire/coach-server/internal/store"
)

// ParsedReply is the result of scanning a raw model reply: the text with all
// well-formed directive tags removed, plus the extracted payloads in order of
// appearance per kind.
type ParsedReply struct {
	DisplayText string
	Videos      []store.VideoSuggestion
	Breathing   []store.BreathingSuggestion
}

// Media returns the payload to persist with the assistant message: nil when
// the reply carried no directives, otherwise whichever lists are non-empty.
func (r ParsedReply) Media() *store.Media {
	if len(r.Videos) == 0 && len(r.Breathing) == 0 {
		return nil
	}
	return &store.Media{Videos: r.Videos, Breathing: r.Breathing}
}

const (
	videoPrefix     = "[VIDEO:"
	breathingPrefix = "[BREATHING:"
)

// ParseDirectives scans raw model output left to right for video and
// breathing directive tags, collects them in appearance order, and deletes
// each matched tag from the display text. All surrounding text and whitespace
// is preserved exactly. Malformed tags (missing a field or an unterminated
// bracket) are left untouched.
func ParseDirectives(raw string) ParsedReply {
	var out ParsedReply
	var display strings.Builder
	display.Grow(len(raw))

	i := 0
	for i < len(raw) {
		if raw[i] == '[' {
			rest := raw[i:]
			if strings.HasPrefix(rest, videoPrefix) {
				if video, length, ok := parseVideoTag(rest); ok {
					out.Videos = append(out.Videos, video)
					i += length
					continue
				}
			} else if strings.HasPrefix(rest, breathingPrefix) {
				if breathing, length, ok := parseBreathingTag(rest); ok {
					out.Breathing = append(out.Breathing, breathing)
					i += length
					continue
				}
			}
		}
		display.WriteByte(raw[i])
		i++
	}

	out.DisplayText = display.String()
	return out
}

// parseVideoTag matches [VIDEO:<title>:<embed_url>] at the start of s. The
// title may not contain ':'; the embed URL may not contain ']'. Returns the
// consumed length on success.
func parseVideoTag(s string) (store.VideoSuggestion, int, bool) {
	body := s[len(videoPrefix):]

	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		return store.VideoSuggestion{}, 0, false
	}
	title := body[:colon]
	if strings.ContainsRune(title, ']') {
		// The tag closed before its second field.
		return store.VideoSuggestion{}, 0, false
	}

	end := strings.IndexByte(body[colon+1:], ']')
	if end < 0 {
		return store.VideoSuggestion{}, 0, false // Unterminated
	}
	embedURL := body[colon+1 : colon+1+end]

	length := len(videoPrefix) + colon + 1 + end + 1
	return store.VideoSuggestion{
		Title:    strings.TrimSpace(title),
		EmbedURL: strings.TrimSpace(embedURL),
	}, length, true
}

// parseBreathingTag matches [BREATHING:<title>:<duration>:<pattern>:<embed_code>]
// at the start of s. The first three fields may not contain ':'; the embed
// code may not contain ']' and may be empty. A duration that fails integer
// parsing is stored as 0 rather than failing the tag.
func parseBreathingTag(s string) (store.BreathingSuggestion, int, bool) {
	body := s[len(breathingPrefix):]

	fields := make([]string, 0, 3)
	pos := 0
	for len(fields) < 3 {
		colon := strings.IndexByte(body[pos:], ':')
		if colon < 0 {
			return store.BreathingSuggestion{}, 0, false
		}
		field := body[pos : pos+colon]
		if strings.ContainsRune(field, ']') {
			return store.BreathingSuggestion{}, 0, false
		}
		fields = append(fields, field)
		pos += colon + 1
	}

	end := strings.IndexByte(body[pos:], ']')
	if end < 0 {
		return store.BreathingSuggestion{}, 0, false // Unterminated
	}
	embedCode := body[pos : pos+end]

	duration, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		duration = 0
	}

	length := len(breathingPrefix) + pos + end + 1
	return store.BreathingSuggestion{
		Title:           fields[0],
		DurationSeconds: duration,
		Pattern:         fields[2],
		EmbedCode:       embedCode,
	}, length, true
}
