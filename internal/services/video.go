package services

import (
	"fmt"
	"strings"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

// VideoMetadata is what a lesson needs from its YouTube source.
type VideoMetadata struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ThumbnailURL    string `json:"thumbnail_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

type VideoService struct {
	ytClient      *yt.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
}

func NewVideoService() *VideoService {
	return &VideoService{
		ytClient:      &yt.Client{},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
	}
}

// Lookup resolves a YouTube URL or video ID into lesson metadata. Admin
// lesson creation uses it to fill duration and thumbnail automatically.
func (s *VideoService) Lookup(videoURL string) (*VideoMetadata, error) {
	video, err := s.ytClient.GetVideo(videoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	meta := &VideoMetadata{
		VideoID:         video.ID,
		Title:           video.Title,
		Author:          video.Author,
		DurationSeconds: int(video.Duration.Seconds()),
	}

	// Largest thumbnail wins.
	var bestWidth uint
	for _, t := range video.Thumbnails {
		if meta.ThumbnailURL == "" || t.Width > bestWidth {
			meta.ThumbnailURL = t.URL
			bestWidth = t.Width
		}
	}

	return meta, nil
}

// Transcript fetches the caption track for a lesson video as plain text.
// English tracks are preferred; any available language is accepted as a
// fallback since the assistant can work with either.
func (s *VideoService) Transcript(videoURL string) (string, error) {
	videoID, err := yt.ExtractVideoID(videoURL)
	if err != nil {
		return "", fmt.Errorf("invalid video URL %q: %w", videoURL, err)
	}

	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no subtitles available for %s: %w", videoID, err)
		}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("subtitle track for %s is empty", videoID)
	}

	return cleaned, nil
}

// ExtractVideoID validates that a string is a YouTube URL or bare ID.
func ExtractVideoID(videoURL string) (string, error) {
	return yt.ExtractVideoID(videoURL)
}
