package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/repository"
)

// Keeps the prompt within a predictable token budget for long lectures.
const maxTranscriptWords = 4000

// TranscriptSource resolves a video URL into caption text.
type TranscriptSource interface {
	Transcript(videoURL string) (string, error)
}

// AssistantService answers learner questions about the activity they are
// working through. Lesson answers are grounded in the video's caption
// track when one is available. The Gemini key is optional; without it the
// chat endpoint reports the feature as unavailable.
type AssistantService struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	activities  *repository.ActivityRepo
	transcripts TranscriptSource

	mu              sync.Mutex
	transcriptCache map[uuid.UUID]string
}

func NewAssistantService(apiKey string, activities *repository.ActivityRepo, transcripts TranscriptSource) (*AssistantService, error) {
	svc := &AssistantService{
		activities:      activities,
		transcripts:     transcripts,
		transcriptCache: make(map[uuid.UUID]string),
	}
	if apiKey == "" {
		return svc, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	svc.client = client
	svc.model = model
	return svc, nil
}

func (s *AssistantService) Enabled() bool { return s.client != nil }

func (s *AssistantService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *AssistantService) Chat(ctx context.Context, userID uuid.UUID, req models.ChatRequest) (*models.ChatResponse, error) {
	if !s.Enabled() {
		return nil, &NotFoundError{Message: "Study assistant is not configured"}
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	activity, err := s.activities.GetByID(ctx, req.ActivityID)
	if err != nil {
		return nil, &NotFoundError{Message: "Activity not found"}
	}

	prompt := s.buildPrompt(activity, req)
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("assistant generation failed: %w", err)
	}

	reply := strings.TrimSpace(extractText(resp))
	if reply == "" {
		return nil, fmt.Errorf("assistant returned empty response")
	}

	return &models.ChatResponse{Reply: reply}, nil
}

func (s *AssistantService) buildPrompt(activity *models.Activity, req models.ChatRequest) string {
	var b strings.Builder
	b.WriteString("You are a study assistant on a learning platform. ")
	b.WriteString("Answer concisely and stay on the topic of the learner's current activity.\n\n")
	fmt.Fprintf(&b, "Activity: %s (%s, %s difficulty)\n", activity.Title, activity.Kind, activity.Difficulty)
	if activity.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", activity.Description)
	}
	if transcript := s.lessonTranscript(activity); transcript != "" {
		fmt.Fprintf(&b, "\nLecture transcript:\n%s\n", transcript)
	}
	if len(req.History) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	fmt.Fprintf(&b, "\nLearner: %s\n", req.Message)
	return b.String()
}

// lessonTranscript returns the caption text for a lesson's video, fetched
// once per activity and truncated to the prompt budget. Fetch failures are
// logged and the prompt falls back to title and description alone.
func (s *AssistantService) lessonTranscript(activity *models.Activity) string {
	if s.transcripts == nil || activity.Kind != models.KindLesson || activity.VideoURL == nil {
		return ""
	}

	s.mu.Lock()
	cached, ok := s.transcriptCache[activity.ID]
	s.mu.Unlock()
	if ok {
		return cached
	}

	transcript, err := s.transcripts.Transcript(*activity.VideoURL)
	if err != nil {
		log.Printf("Transcript fetch for activity %s failed: %v", activity.ID, err)
		transcript = ""
	}
	transcript = truncateWords(transcript, maxTranscriptWords)

	// Failures are cached too so a caption-less video is not refetched
	// on every chat turn.
	s.mu.Lock()
	s.transcriptCache[activity.ID] = transcript
	s.mu.Unlock()

	return transcript
}

func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
