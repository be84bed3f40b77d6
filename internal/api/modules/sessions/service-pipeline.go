package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicvoice/server/internal/stores/clinic"
	"github.com/clinicvoice/server/pkg/prompt"
)

// Transcriber converts raw audio bytes into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Summarizer turns a transcript into a structured note under a system prompt
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt string, transcript string) (string, error)
}

// DurationProber reports the playable length of an audio file in seconds
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ValidLanguages are the transcription language codes accepted on submission
var ValidLanguages = []string{"en-US", "es", "fr", "de", "ja", "zh", "pt", "it", "ar"}

// validMimeTypes are the upload content types accepted on submission
var validMimeTypes = []string{"audio/webm", "audio/mpeg", "audio/wav"}

// bannedPhrases mark hallucinated transcripts that must never reach the
// summarizer
var bannedPhrases = []string{
	"اشتركوا في القناة",
	"لا تنسوا الاشتراك",
	"Subscribe to the channel",
	"Don't forget to subscribe",
}

// minDurationSeconds is the floor below which a recording is considered
// silent
const minDurationSeconds = 1.0

// PipelineError is a pipeline failure with the HTTP status it maps to.
// Details is only surfaced to clients in dev mode.
type PipelineError struct {
	Status  int
	Message string
	Details string
}

func (e *PipelineError) Error() string {
	return e.Message
}

// Submission is one recorded session handed to the pipeline. TempPath points
// at the uploaded audio on disk; the pipeline removes it on every path.
type Submission struct {
	TempPath     string
	OriginalName string
	ContentType  string
	SessionID    string
	PatientID    uint
	UserID       uint
	Language     string
	Template     string
}

// Result is the client-facing outcome of a processed session
type Result struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	AudioURL   string `json:"audio_url"`
}

// Pipeline runs a submission through validation, transcription,
// summarization, and persistence
type Pipeline struct {
	store       *clinic.Store
	transcriber Transcriber
	summarizer  Summarizer
	prober      DurationProber
	uploadsDir  string
	devMode     bool
}

// NewPipeline assembles a session pipeline from its collaborators
func NewPipeline(store *clinic.Store, transcriber Transcriber, summarizer Summarizer, prober DurationProber, uploadsDir string, devMode bool) *Pipeline {
	return &Pipeline{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		prober:      prober,
		uploadsDir:  uploadsDir,
		devMode:     devMode,
	}
}

// ValidLanguage reports whether the code is an accepted transcription
// language
func ValidLanguage(code string) bool {
	for _, l := range ValidLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// normalizeMimeType strips parameters such as ";codecs=opus" and lowercases
// the media type
func normalizeMimeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mediaType
}

func validMimeType(contentType string) bool {
	mediaType := normalizeMimeType(contentType)
	for _, m := range validMimeTypes {
		if m == mediaType {
			return true
		}
	}
	return false
}

// transcriptUsable reports whether the transcript is non-empty and free of
// hallucination markers
func transcriptUsable(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return false
	}
	for _, phrase := range bannedPhrases {
		if strings.Contains(trimmed, phrase) {
			return false
		}
	}
	return true
}

// preferencesFor returns the note-style preferences applied for a user
func preferencesFor(userID uint) string {
	return fmt.Sprintf("User preferences for user %d: concise format, formal tone.", userID)
}

// internalError logs the cause and wraps it as a generic 500
func (p *Pipeline) internalError(err error) *PipelineError {
	log.Printf("[SESSIONS]: %v", err)
	perr := &PipelineError{Status: http.StatusInternalServerError, Message: "Processing failed"}
	if p.devMode {
		perr.Details = err.Error()
	}
	return perr
}

// Process validates and runs one submission end to end. The temp file is
// removed on every return path; the stored audio file is only kept when the
// session row was persisted.
func (p *Pipeline) Process(ctx context.Context, sub Submission) (*Result, *PipelineError) {
	fail := func(perr *PipelineError) (*Result, *PipelineError) {
		if err := os.Remove(sub.TempPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[SESSIONS]: failed to remove temp file %s: %v", sub.TempPath, err)
		}
		return nil, perr
	}

	info, err := os.Stat(sub.TempPath)
	if err != nil {
		return fail(p.internalError(fmt.Errorf("failed to stat uploaded file: %w", err)))
	}
	if info.Size() == 0 {
		return fail(&PipelineError{Status: http.StatusBadRequest, Message: "Uploaded audio file is empty"})
	}

	duration, err := p.prober.Duration(ctx, sub.TempPath)
	if err != nil {
		log.Printf("[SESSIONS]: failed to probe duration: %v", err)
		duration = 0
	}
	if duration < minDurationSeconds {
		return fail(&PipelineError{Status: http.StatusBadRequest, Message: "Audio too short or silent"})
	}

	if !validMimeType(sub.ContentType) {
		return fail(&PipelineError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid audio file type: %s", sub.ContentType),
		})
	}

	audioBytes, err := os.ReadFile(sub.TempPath)
	if err != nil {
		return fail(p.internalError(fmt.Errorf("failed to read uploaded file: %w", err)))
	}

	transcript, err := p.transcriber.Transcribe(ctx, audioBytes, sub.Language)
	if err != nil {
		return fail(p.internalError(fmt.Errorf("failed to transcribe audio: %w", err)))
	}
	if !transcriptUsable(transcript) {
		return fail(&PipelineError{Status: http.StatusBadRequest, Message: "Transcript invalid or empty"})
	}

	templateHTML, err := p.store.GetTemplateContent(ctx, sub.Template)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			return fail(&PipelineError{Status: http.StatusNotFound, Message: "Template not found"})
		}
		return fail(p.internalError(fmt.Errorf("failed to load template: %w", err)))
	}

	patient, err := p.store.GetPatient(ctx, sub.PatientID, sub.UserID)
	patientName := ""
	if err == nil {
		patientName = strings.TrimSpace(patient.FirstName + " " + patient.LastName)
	}

	systemPrompt := prompt.BuildSystemPrompt(prompt.Input{
		TemplateHTML: templateHTML,
		Preferences:  preferencesFor(sub.UserID),
		Patient:      patientName,
		Language:     sub.Language,
		Now:          time.Now(),
	})

	summary, err := p.summarizer.Summarize(ctx, systemPrompt, transcript)
	if err != nil {
		return fail(p.internalError(fmt.Errorf("failed to summarize transcript: %w", err)))
	}

	ext := filepath.Ext(sub.OriginalName)
	filename := "audio-" + uuid.NewString() + ext
	finalPath := filepath.Join(p.uploadsDir, filename)

	if err := os.MkdirAll(p.uploadsDir, 0o755); err != nil {
		return fail(p.internalError(fmt.Errorf("failed to create uploads directory: %w", err)))
	}
	if err := os.Rename(sub.TempPath, finalPath); err != nil {
		return fail(p.internalError(fmt.Errorf("failed to store audio file: %w", err)))
	}

	now := time.Now()
	session := &clinic.Session{
		SessionID:   sub.SessionID,
		UserID:      sub.UserID,
		PatientID:   sub.PatientID,
		AudioFile:   filename,
		Transcript:  transcript,
		Template:    sub.Template,
		AISummary:   summary,
		Status:      clinic.SessionStatusCompleted,
		CompletedAt: &now,
	}

	if err := p.store.CreateSession(ctx, session); err != nil {
		if removeErr := os.Remove(finalPath); removeErr != nil {
			log.Printf("[SESSIONS]: failed to remove stored audio %s: %v", finalPath, removeErr)
		}
		if errors.Is(err, clinic.ErrDuplicate) {
			return nil, &PipelineError{Status: http.StatusConflict, Message: "Session already exists"}
		}
		return nil, p.internalError(fmt.Errorf("failed to save session: %w", err))
	}

	return &Result{
		Transcript: transcript,
		Summary:    summary,
		AudioURL:   "/get-audio/" + filename,
	}, nil
}
