package clinic

import "time"

// Session statuses
const (
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCanceled  = "canceled"
)

// User represents a clinician account
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName      string `json:"first_name" gorm:"size:255"`
	LastName       string `json:"last_name" gorm:"size:255"`
	Email          string `json:"email" gorm:"size:255;uniqueIndex"`
	PasswordHash   string `json:"-" gorm:"size:255"`
	Role           string `json:"role" gorm:"size:50"`
	OrganizationID uint   `json:"organization_id"`
}

// Organization groups users; created together with its first user
type Organization struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `json:"name" gorm:"size:255"`
	Country string `json:"country" gorm:"size:100"`
	OwnerID *uint  `json:"owner_id"`
}

// Patient represents a patient record owned by the creating user
type Patient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirstName string `json:"first_name" gorm:"size:255"`
	LastName  string `json:"last_name" gorm:"size:255"`
	BirthDate string `json:"birth_date" gorm:"size:10"`
	Sex       string `json:"sex" gorm:"size:20"`
	Phone     string `json:"phone" gorm:"size:50"`
	Email     string `json:"email" gorm:"size:255"`
	Address   string `json:"address" gorm:"size:512"`
	Status    string `json:"status" gorm:"size:50"`
	LastVisit string `json:"last_visit" gorm:"size:10"`
	CreatedBy uint   `json:"created_by" gorm:"index"`
}

// Appointment represents a scheduled visit for a patient
type Appointment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PatientID       uint   `json:"patient_id" gorm:"index;not null"`
	AppointmentDate string `json:"appointment_date" gorm:"size:10"`
	AppointmentTime string `json:"appointment_time" gorm:"size:8"`
	Reason          string `json:"reason" gorm:"type:text"`
	Status          string `json:"status" gorm:"size:20"`
	CreatedBy       uint   `json:"created_by" gorm:"index"`
}

// AppointmentView is an appointment joined with the patient's display name
type AppointmentView struct {
	Appointment
	PatientName string `json:"patient_name"`
}

// Session represents one recorded-and-transcribed clinical encounter.
// The row is written exactly once, after transcription and summarization both
// succeed; status is "completed" only with a non-empty transcript and summary.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SessionID   string     `json:"session_id" gorm:"size:191;uniqueIndex;not null"`
	UserID      uint       `json:"user_id" gorm:"index"`
	PatientID   uint       `json:"patient_id" gorm:"index"`
	AudioFile   string     `json:"audio_file" gorm:"size:512"`
	Transcript  string     `json:"transcript" gorm:"type:text"`
	Template    string     `json:"template" gorm:"size:191"`
	AISummary   string     `json:"ai_summary" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:20"`
	CompletedAt *time.Time `json:"completed_at"`
}

// PromptTemplate is an HTML skeleton the summarization model fills in
type PromptTemplate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TemplateType    string `json:"template_type" gorm:"size:50"`
	TemplateSlug    string `json:"template_slug" gorm:"size:191;uniqueIndex;not null"`
	TemplateContent string `json:"template_content" gorm:"type:text"`
	CreatedBy       uint   `json:"created_by"`
}

// RevokedToken is the append-only denylist consulted by the auth middleware.
// Rows whose expiry has passed are garbage anyway (the token no longer
// verifies) and are purged by a background job.
type RevokedToken struct {
	JTI       string    `json:"jti" gorm:"primaryKey;size:36;column:jti"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionUpdate carries the caller-editable fields of a session; nil fields
// keep their stored values
type SessionUpdate struct {
	Transcript  *string
	Template    *string
	AISummary   *string
	Status      *string
	CompletedAt *time.Time
}
