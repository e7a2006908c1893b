package store

import (
	"fmt"
	"log"
)

// Seed loads the starter catalogs: meditation videos, breathing exercises and
// the fatigue quiz. It is idempotent per table: a table that already has rows
// is left alone.
func (s *SQLiteStore) Seed() error {
	videos, err := s.ListVideos()
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		for _, v := range seedVideos {
			v := v
			if err := s.AddVideo(&v); err != nil {
				return fmt.Errorf("failed to seed video %q: %w", v.Title, err)
			}
		}
		log.Printf("Seeded %d videos", len(seedVideos))
	}

	exercises, err := s.ListBreathingExercises()
	if err != nil {
		return err
	}
	if len(exercises) == 0 {
		for _, b := range seedBreathing {
			b := b
			if err := s.AddBreathingExercise(&b); err != nil {
				return fmt.Errorf("failed to seed breathing exercise %q: %w", b.Title, err)
			}
		}
		log.Printf("Seeded %d breathing exercises", len(seedBreathing))
	}

	questions, err := s.ListQuizQuestions()
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		for _, q := range seedQuiz {
			q := q
			if err := s.AddQuizQuestion(&q); err != nil {
				return fmt.Errorf("failed to seed quiz question: %w", err)
			}
		}
		log.Printf("Seeded %d quiz questions", len(seedQuiz))
	}
	return nil
}

var seedVideos = []VideoEntry{
	{
		Title:    "Deep Meditation",
		URL:      "https://youtu.be/3-fESb8KTCk",
		EmbedURL: "https://www.youtube.com/embed/3-fESb8KTCk",
		Category: "meditation",
		Tags:     "meditation,deep,relaxation,stress-relief",
	},
	{
		Title:    "Sleep Meditation",
		URL:      "https://youtu.be/_n3kHdZrq7U",
		EmbedURL: "https://www.youtube.com/embed/_n3kHdZrq7U",
		Category: "meditation",
		Tags:     "meditation,sleep,relaxation,insomnia",
	},
	{
		Title:    "Gentle Yoga",
		URL:      "https://youtu.be/3X0hEHop8ec",
		EmbedURL: "https://www.youtube.com/embed/3X0hEHop8ec",
		Category: "yoga",
		Tags:     "yoga,gentle,exercise,movement,wellness",
	},
	{
		Title:    "Therapeutic ASMR",
		URL:      "https://youtu.be/Fq1wR3UPG1I",
		EmbedURL: "https://www.youtube.com/embed/Fq1wR3UPG1I",
		Category: "asmr",
		Tags:     "asmr,therapeutic,relaxation,stress-relief,sleep",
	},
}

var seedBreathing = []BreathingEntry{
	{
		Title:       "4-7-8 Breathing",
		Description: "A calming breathing technique that helps reduce stress and anxiety",
		Duration:    120,
		Pattern:     "Breathe in for 4 counts, hold for 7, exhale for 8",
	},
	{
		Title:       "Box Breathing",
		Description: "Simple 4-count breathing pattern for relaxation",
		Duration:    60,
		Pattern:     "Inhale 4, hold 4, exhale 4, hold 4",
	},
	{
		Title:       "Deep Belly Breathing",
		Description: "Gentle deep breathing to activate relaxation response",
		Duration:    90,
		Pattern:     "Slow deep breaths, focusing on belly expansion",
	},
}

var seedQuiz = []QuizQuestion{
	{
		Text:  "How would you rate your overall energy level right now?",
		Order: 1,
		Options: []QuizOption{
			{Text: "Very high energy, feeling great", Value: 0.1},
			{Text: "Good energy, feeling normal", Value: 0.3},
			{Text: "Moderate energy, a bit tired", Value: 0.5},
			{Text: "Low energy, quite tired", Value: 0.7},
			{Text: "Very low energy, extremely tired", Value: 0.9},
		},
		Weight: 1.5,
	},
	{
		Text:  "How difficult is it for you to complete daily activities?",
		Order: 2,
		Options: []QuizOption{
			{Text: "Not difficult at all", Value: 0.1},
			{Text: "Slightly difficult", Value: 0.3},
			{Text: "Moderately difficult", Value: 0.5},
			{Text: "Very difficult", Value: 0.7},
			{Text: "Extremely difficult, can barely function", Value: 0.9},
		},
		Weight: 1.5,
	},
	{
		Text:  "How would you describe your ability to concentrate?",
		Order: 3,
		Options: []QuizOption{
			{Text: "Excellent, no problems focusing", Value: 0.1},
			{Text: "Good, minor concentration issues", Value: 0.3},
			{Text: "Moderate, some difficulty focusing", Value: 0.5},
			{Text: "Poor, significant concentration problems", Value: 0.7},
			{Text: "Very poor, can't concentrate at all", Value: 0.9},
		},
		Weight: 1.0,
	},
	{
		Text:  "How has your sleep been affecting your fatigue?",
		Order: 4,
		Options: []QuizOption{
			{Text: "Sleeping well, feel rested", Value: 0.1},
			{Text: "Sleeping okay, mostly rested", Value: 0.3},
			{Text: "Sleep is okay but not fully restorative", Value: 0.5},
			{Text: "Poor sleep, feel tired", Value: 0.7},
			{Text: "Very poor sleep, extremely tired", Value: 0.9},
		},
		Weight: 1.2,
	},
	{
		Text:  "How much does fatigue interfere with your daily life?",
		Order: 5,
		Options: []QuizOption{
			{Text: "Not at all", Value: 0.1},
			{Text: "A little bit", Value: 0.3},
			{Text: "Moderately", Value: 0.5},
			{Text: "Quite a bit", Value: 0.7},
			{Text: "Extremely, it's overwhelming", Value: 0.9},
		},
		Weight: 1.3,
	},
}
