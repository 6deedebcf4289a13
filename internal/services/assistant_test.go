package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"learnpulse-backend/internal/models"
)

type fakeTranscriptSource struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriptSource) Transcript(_ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func lessonWithVideo() *models.Activity {
	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	return &models.Activity{
		ID:          uuid.New(),
		Kind:        models.KindLesson,
		Title:       "Intro to Derivatives",
		Description: "Limits and the definition of the derivative",
		Difficulty:  "medium",
		VideoURL:    &url,
	}
}

func TestBuildPrompt_IncludesLessonTranscript(t *testing.T) {
	source := &fakeTranscriptSource{text: "today we cover the limit definition of the derivative"}
	svc := &AssistantService{
		transcripts:     source,
		transcriptCache: make(map[uuid.UUID]string),
	}

	prompt := svc.buildPrompt(lessonWithVideo(), models.ChatRequest{Message: "What is a derivative?"})

	if !strings.Contains(prompt, "Lecture transcript:") {
		t.Error("Expected prompt to carry a transcript section")
	}
	if !strings.Contains(prompt, "limit definition of the derivative") {
		t.Error("Expected prompt to contain the caption text")
	}
	if !strings.Contains(prompt, "Learner: What is a derivative?") {
		t.Error("Expected prompt to end with the learner's question")
	}
}

func TestBuildPrompt_SkipsTranscriptForNonLessons(t *testing.T) {
	source := &fakeTranscriptSource{text: "should never be fetched"}
	svc := &AssistantService{
		transcripts:     source,
		transcriptCache: make(map[uuid.UUID]string),
	}

	activity := &models.Activity{
		ID:         uuid.New(),
		Kind:       models.KindPractice,
		Title:      "Chain Rule Drills",
		Difficulty: "hard",
	}
	prompt := svc.buildPrompt(activity, models.ChatRequest{Message: "hint please"})

	if source.calls != 0 {
		t.Errorf("Expected no transcript fetch for practice activity, got %d", source.calls)
	}
	if strings.Contains(prompt, "Lecture transcript:") {
		t.Error("Practice prompt must not carry a transcript section")
	}
}

func TestLessonTranscript_CachesPerActivity(t *testing.T) {
	source := &fakeTranscriptSource{text: "cached caption text"}
	svc := &AssistantService{
		transcripts:     source,
		transcriptCache: make(map[uuid.UUID]string),
	}

	activity := lessonWithVideo()
	for i := 0; i < 3; i++ {
		if got := svc.lessonTranscript(activity); got != "cached caption text" {
			t.Fatalf("Expected cached transcript, got %q", got)
		}
	}
	if source.calls != 1 {
		t.Errorf("Expected a single fetch across repeated chats, got %d", source.calls)
	}
}

func TestLessonTranscript_FetchFailureDegradesToMetadata(t *testing.T) {
	source := &fakeTranscriptSource{err: fmt.Errorf("no subtitles available")}
	svc := &AssistantService{
		transcripts:     source,
		transcriptCache: make(map[uuid.UUID]string),
	}

	activity := lessonWithVideo()
	prompt := svc.buildPrompt(activity, models.ChatRequest{Message: "summarize the lesson"})

	if strings.Contains(prompt, "Lecture transcript:") {
		t.Error("Expected prompt without a transcript section when captions are unavailable")
	}
	if !strings.Contains(prompt, "Intro to Derivatives") {
		t.Error("Expected prompt to still carry the activity title")
	}

	// The failure is cached; later chats must not hammer the caption API.
	svc.lessonTranscript(activity)
	if source.calls != 1 {
		t.Errorf("Expected failed fetch to be cached, got %d calls", source.calls)
	}
}

func TestTruncateWords(t *testing.T) {
	long := strings.Repeat("word ", maxTranscriptWords+200)
	truncated := truncateWords(long, maxTranscriptWords)
	if got := len(strings.Fields(truncated)); got != maxTranscriptWords {
		t.Errorf("Expected %d words after truncation, got %d", maxTranscriptWords, got)
	}

	short := "only three words"
	if truncateWords(short, maxTranscriptWords) != short {
		t.Errorf("Short text must pass through unchanged")
	}
}
