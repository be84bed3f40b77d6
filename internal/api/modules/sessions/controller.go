package sessions

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
	"github.com/clinicvoice/server/internal/stores/clinic"
	"github.com/clinicvoice/server/pkg/audio"
	"github.com/clinicvoice/server/pkg/deepgram"
	"github.com/clinicvoice/server/pkg/summarize"
	"github.com/clinicvoice/server/pkg/utils"
)

// Module state, set once by Init
var (
	sessionStore *clinic.Store
	pipeline     *Pipeline
	tmpDir       string
	uploadsDir   string
	devMode      bool
)

// Init wires the sessions module to its store and external services
func Init(cfg *utils.Config, store *clinic.Store) error {
	sessionStore = store
	tmpDir = cfg.GetWithDefault("UPLOAD_TMP_DIR", os.TempDir())
	uploadsDir = cfg.GetWithDefault("AUDIO_UPLOADS_DIR", "uploads")
	devMode = cfg.GetBool("DEV_MODE")

	transcriber, err := deepgram.NewClient(cfg.Get("DEEPGRAM_API_KEY"))
	if err != nil {
		return fmt.Errorf("failed to create transcription client: %w", err)
	}

	summarizerOpts := []summarize.Option{}
	if baseURL := cfg.Get("SUMMARY_BASE_URL"); baseURL != "" {
		summarizerOpts = append(summarizerOpts, summarize.WithBaseURL(baseURL))
	}
	if model := cfg.Get("SUMMARY_MODEL"); model != "" {
		summarizerOpts = append(summarizerOpts, summarize.WithModel(model))
	}
	summarizer, err := summarize.NewClient(cfg.Get("DEEPSEEK_API_KEY"), summarizerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create summarization client: %w", err)
	}

	pipeline = NewPipeline(store, transcriber, summarizer, audio.NewProber(), uploadsDir, devMode)

	return nil
}

// updateRequest uses pointers so absent fields keep their stored values
type updateRequest struct {
	Transcript  *string    `json:"transcript"`
	Template    *string    `json:"template"`
	AISummary   *string    `json:"ai_summary"`
	Status      *string    `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CreateSession handles multipart POST requests to submit a recorded session.
// Field validation happens here; everything downstream of the upload runs in
// the pipeline.
func CreateSession(c *gin.Context) {
	file, fileErr := c.FormFile("file")
	patientIDRaw := c.PostForm("patient_id")
	sessionID := c.PostForm("session_id")
	userIDRaw := c.PostForm("user_id")
	template := c.PostForm("template")
	language := c.DefaultPostForm("language", "en-US")

	if !ValidLanguage(language) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "Invalid language code provided",
			"valid_languages": ValidLanguages,
		})
		return
	}

	missing := []string{}
	if fileErr != nil {
		missing = append(missing, "audio file")
	}
	if patientIDRaw == "" {
		missing = append(missing, "patient_id")
	}
	if sessionID == "" {
		missing = append(missing, "session_id")
	}
	if userIDRaw == "" {
		missing = append(missing, "user_id")
	}
	if template == "" {
		missing = append(missing, "template")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields",
			"missing": missing,
		})
		return
	}

	patientID, err := strconv.ParseUint(patientIDRaw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient_id"})
		return
	}
	userID, err := strconv.ParseUint(userIDRaw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		log.Printf("[SESSIONS]: failed to create temp directory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	tempPath := filepath.Join(tmpDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		log.Printf("[SESSIONS]: failed to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	result, perr := pipeline.Process(c.Request.Context(), Submission{
		TempPath:     tempPath,
		OriginalName: file.Filename,
		ContentType:  file.Header.Get("Content-Type"),
		SessionID:    sessionID,
		PatientID:    uint(patientID),
		UserID:       uint(userID),
		Language:     language,
		Template:     template,
	})
	if perr != nil {
		body := gin.H{"error": perr.Message}
		if devMode && perr.Details != "" {
			body["details"] = perr.Details
		}
		c.JSON(perr.Status, body)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListSessions handles GET requests for the caller's sessions, optionally
// filtered by patient
func ListSessions(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	var patientID *uint
	if raw := c.Query("patientId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patientId"})
			return
		}
		id := uint(parsed)
		patientID = &id
	}

	sessions, err := sessionStore.ListSessions(c.Request.Context(), userID, patientID)
	if err != nil {
		log.Printf("[SESSIONS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSession handles GET requests for a single owned session
func GetSession(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	session, err := sessionStore.GetSession(c.Request.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		log.Printf("[SESSIONS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// UpdateSession handles PUT requests to amend an owned session; absent fields
// keep their stored values
func UpdateSession(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not parse request body"})
		return
	}

	update := clinic.SessionUpdate{
		Transcript:  req.Transcript,
		Template:    req.Template,
		AISummary:   req.AISummary,
		Status:      req.Status,
		CompletedAt: req.CompletedAt,
	}

	session, err := sessionStore.UpdateSession(c.Request.Context(), uint(id), userID, update)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this session"})
			return
		}
		log.Printf("[SESSIONS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE requests to remove an owned session along with
// its stored audio file
func DeleteSession(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	session, err := sessionStore.GetSession(c.Request.Context(), uint(id), userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized or session not found"})
			return
		}
		log.Printf("[SESSIONS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	if err := sessionStore.DeleteSession(c.Request.Context(), uint(id), userID); err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized or session not found"})
			return
		}
		log.Printf("[SESSIONS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}

	if session.AudioFile != "" {
		path := filepath.Join(uploadsDir, filepath.Base(session.AudioFile))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[SESSIONS]: failed to remove audio file %s: %v", path, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// GetAudio serves a stored session recording by filename. The name is
// sanitized to its base component so path traversal cannot escape the uploads
// directory.
func GetAudio(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(uploadsDir, filename)

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audio not found"})
		return
	}

	c.File(path)
}
