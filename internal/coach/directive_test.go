package coach

import (
	"testing"
)

// --- ParseDirectives ---

func TestParseDirectives_PlainText(t *testing.T) {
	input := "I hear you. That sounds exhausting."
	got := ParseDirectives(input)
	if got.DisplayText != input {
		t.Errorf("display text changed: got %q, want %q", got.DisplayText, input)
	}
	if len(got.Videos) != 0 || len(got.Breathing) != 0 {
		t.Errorf("expected no directives, got %d videos, %d breathing", len(got.Videos), len(got.Breathing))
	}
	if got.Media() != nil {
		t.Error("expected nil media for plain text")
	}
}

func TestParseDirectives_Video(t *testing.T) {
	got := ParseDirectives("Try this one. [VIDEO:Deep Meditation:https://youtube.com/embed/abc] It helped others.")
	want := "Try this one.  It helped others."
	if got.DisplayText != want {
		t.Errorf("got %q, want %q", got.DisplayText, want)
	}
	if len(got.Videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(got.Videos))
	}
	if got.Videos[0].Title != "Deep Meditation" {
		t.Errorf("title: got %q", got.Videos[0].Title)
	}
	if got.Videos[0].EmbedURL != "https://youtube.com/embed/abc" {
		t.Errorf("embed url: got %q", got.Videos[0].EmbedURL)
	}
}

func TestParseDirectives_VideoFieldsTrimmed(t *testing.T) {
	got := ParseDirectives("[VIDEO: Sleep Meditation : https://youtube.com/embed/xyz ]")
	if len(got.Videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(got.Videos))
	}
	if got.Videos[0].Title != "Sleep Meditation" {
		t.Errorf("title not trimmed: got %q", got.Videos[0].Title)
	}
	if got.Videos[0].EmbedURL != "https://youtube.com/embed/xyz" {
		t.Errorf("embed url not trimmed: got %q", got.Videos[0].EmbedURL)
	}
}

func TestParseDirectives_Breathing(t *testing.T) {
	got := ParseDirectives("[BREATHING:4-7-8 Breathing:120:Inhale 4s, Hold 7s, Exhale 8s:box-478]")
	if got.DisplayText != "" {
		t.Errorf("display text: got %q, want empty", got.DisplayText)
	}
	if len(got.Breathing) != 1 {
		t.Fatalf("expected 1 breathing exercise, got %d", len(got.Breathing))
	}
	b := got.Breathing[0]
	if b.Title != "4-7-8 Breathing" {
		t.Errorf("title: got %q", b.Title)
	}
	if b.DurationSeconds != 120 {
		t.Errorf("duration: got %d, want 120", b.DurationSeconds)
	}
	if b.Pattern != "Inhale 4s, Hold 7s, Exhale 8s" {
		t.Errorf("pattern: got %q", b.Pattern)
	}
	if b.EmbedCode != "box-478" {
		t.Errorf("embed code: got %q", b.EmbedCode)
	}
}

func TestParseDirectives_BreathingEmptyEmbedCode(t *testing.T) {
	got := ParseDirectives("Let's try this. [BREATHING:Box:60:4-4-4-4:]  [VIDEO:Calm:https://x/y]")
	want := "Let's try this.   "
	if got.DisplayText != want {
		t.Errorf("display text: got %q, want %q", got.DisplayText, want)
	}
	if len(got.Breathing) != 1 || len(got.Videos) != 1 {
		t.Fatalf("expected 1 breathing + 1 video, got %d + %d", len(got.Breathing), len(got.Videos))
	}
	if got.Breathing[0].EmbedCode != "" {
		t.Errorf("embed code: got %q, want empty", got.Breathing[0].EmbedCode)
	}
	if got.Breathing[0].DurationSeconds != 60 {
		t.Errorf("duration: got %d, want 60", got.Breathing[0].DurationSeconds)
	}
	if got.Videos[0].Title != "Calm" {
		t.Errorf("video title: got %q", got.Videos[0].Title)
	}
}

func TestParseDirectives_UnparsableDurationIsZero(t *testing.T) {
	got := ParseDirectives("[BREATHING:Box:soon:4-4-4-4:code]")
	if len(got.Breathing) != 1 {
		t.Fatalf("expected 1 breathing exercise, got %d", len(got.Breathing))
	}
	if got.Breathing[0].DurationSeconds != 0 {
		t.Errorf("duration: got %d, want 0", got.Breathing[0].DurationSeconds)
	}
}

func TestParseDirectives_MultipleInOrder(t *testing.T) {
	got := ParseDirectives("[VIDEO:A:u1] middle [VIDEO:B:u2][BREATHING:C:30:p:e]")
	if got.DisplayText != " middle " {
		t.Errorf("display text: got %q", got.DisplayText)
	}
	if len(got.Videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(got.Videos))
	}
	if got.Videos[0].Title != "A" || got.Videos[1].Title != "B" {
		t.Errorf("video order: got %q, %q", got.Videos[0].Title, got.Videos[1].Title)
	}
	if len(got.Breathing) != 1 || got.Breathing[0].Title != "C" {
		t.Fatalf("breathing: got %+v", got.Breathing)
	}
}

func TestParseDirectives_MalformedVideoLeftAlone(t *testing.T) {
	// Missing the second field: the bracket closes before the embed URL.
	input := "Watch [VIDEO:OnlyTitle] tonight."
	got := ParseDirectives(input)
	if got.DisplayText != input {
		t.Errorf("malformed tag was altered: got %q, want %q", got.DisplayText, input)
	}
	if len(got.Videos) != 0 {
		t.Errorf("expected no videos, got %d", len(got.Videos))
	}
}

func TestParseDirectives_UnterminatedLeftAlone(t *testing.T) {
	input := "Try [BREATHING:Box:60:4-4-4-4:code without an end"
	got := ParseDirectives(input)
	if got.DisplayText != input {
		t.Errorf("unterminated tag was altered: got %q, want %q", got.DisplayText, input)
	}
	if len(got.Breathing) != 0 {
		t.Errorf("expected no breathing exercises, got %d", len(got.Breathing))
	}
}

func TestParseDirectives_MalformedBreathingTooFewFields(t *testing.T) {
	input := "[BREATHING:Box:60]"
	got := ParseDirectives(input)
	if got.DisplayText != input {
		t.Errorf("got %q, want %q", got.DisplayText, input)
	}
	if len(got.Breathing) != 0 {
		t.Errorf("expected no breathing exercises, got %d", len(got.Breathing))
	}
}

func TestParseDirectives_UnknownTagLeftAlone(t *testing.T) {
	input := "Here is a [JOURNAL:what made you smile today] prompt."
	got := ParseDirectives(input)
	if got.DisplayText != input {
		t.Errorf("got %q, want %q", got.DisplayText, input)
	}
}

func TestParseDirectives_IdempotentOnCleanText(t *testing.T) {
	first := ParseDirectives("Rest matters. [VIDEO:Calm:https://x/y]")
	second := ParseDirectives(first.DisplayText)
	if second.DisplayText != first.DisplayText {
		t.Errorf("second pass changed text: %q vs %q", second.DisplayText, first.DisplayText)
	}
	if len(second.Videos) != 0 || len(second.Breathing) != 0 {
		t.Error("second pass extracted directives from clean text")
	}
}

func TestParseDirectives_MediaNilVsPopulated(t *testing.T) {
	if m := ParseDirectives("no tags here, just words").Media(); m != nil {
		t.Errorf("expected nil media, got %+v", m)
	}
	m := ParseDirectives("[VIDEO:A:u]").Media()
	if m == nil {
		t.Fatal("expected media for a reply with a directive")
	}
	if len(m.Videos) != 1 {
		t.Errorf("expected 1 video in media, got %d", len(m.Videos))
	}
	if m.Breathing != nil {
		t.Errorf("expected nil breathing list, got %+v", m.Breathing)
	}
}
