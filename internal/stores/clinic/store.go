package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to controllers for status-code mapping
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store handles persistence for all clinic records using GORM
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store with a MySQL connection
func NewStore(databaseURL string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewStoreWithDB(db)
}

// NewStoreWithDB wraps an existing GORM connection (tests use sqlite here)
func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	store := &Store{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(
		&Organization{},
		&User{},
		&Patient{},
		&Appointment{},
		&Session{},
		&PromptTemplate{},
		&RevokedToken{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

/* Users and organizations */

// CreateUserWithOrganization creates the organization and its first user in
// one transaction and back-fills the organization's owner
func (s *Store) CreateUserWithOrganization(ctx context.Context, user *User, org *Organization) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		user.OrganizationID = org.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		org.OwnerID = &user.ID
		return tx.Model(org).Update("owner_id", user.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email already registered: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user and organization: %w", err)
	}

	return nil
}

// FindUserByEmail retrieves a user by email address
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}

	return &user, nil
}

/* Patients */

// CreatePatient inserts a new patient row
func (s *Store) CreatePatient(ctx context.Context, patient *Patient) error {
	if result := s.db.WithContext(ctx).Create(patient); result.Error != nil {
		return fmt.Errorf("failed to create patient: %w", result.Error)
	}
	return nil
}

// ListPatients returns all patients owned by the user, newest first
func (s *Store) ListPatients(ctx context.Context, ownerID uint) ([]Patient, error) {
	var patients []Patient
	result := s.db.WithContext(ctx).
		Where("created_by = ?", ownerID).
		Order("created_at DESC").
		Find(&patients)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list patients: %w", result.Error)
	}

	return patients, nil
}

// GetPatient retrieves a patient by id, scoped to the owning user
func (s *Store) GetPatient(ctx context.Context, id, ownerID uint) (*Patient, error) {
	var patient Patient
	result := s.db.WithContext(ctx).First(&patient, "id = ? AND created_by = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", result.Error)
	}

	return &patient, nil
}

// UpdatePatient replaces the editable fields of an owned patient
func (s *Store) UpdatePatient(ctx context.Context, id, ownerID uint, updates *Patient) (*Patient, error) {
	patient, err := s.GetPatient(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	patient.FirstName = updates.FirstName
	patient.LastName = updates.LastName
	patient.BirthDate = updates.BirthDate
	patient.Sex = updates.Sex
	patient.Phone = updates.Phone
	patient.Email = updates.Email
	patient.Address = updates.Address
	patient.Status = updates.Status
	patient.LastVisit = updates.LastVisit

	if result := s.db.WithContext(ctx).Save(patient); result.Error != nil {
		return nil, fmt.Errorf("failed to update patient: %w", result.Error)
	}

	return patient, nil
}

// DeletePatient removes an owned patient row
func (s *Store) DeletePatient(ctx context.Context, id, ownerID uint) (*Patient, error) {
	patient, err := s.GetPatient(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if result := s.db.WithContext(ctx).Delete(patient); result.Error != nil {
		return nil, fmt.Errorf("failed to delete patient: %w", result.Error)
	}

	return patient, nil
}

// PatientOwnedBy reports whether the patient exists and belongs to the user
func (s *Store) PatientOwnedBy(ctx context.Context, patientID, ownerID uint) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&Patient{}).
		Where("id = ? AND created_by = ?", patientID, ownerID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check patient ownership: %w", result.Error)
	}

	return count > 0, nil
}

/* Appointments */

// CreateAppointment inserts a new appointment row
func (s *Store) CreateAppointment(ctx context.Context, appointment *Appointment) error {
	if result := s.db.WithContext(ctx).Create(appointment); result.Error != nil {
		return fmt.Errorf("failed to create appointment: %w", result.Error)
	}
	return nil
}

// ListAppointments returns the user's appointments with patient names,
// ordered by date and time
func (s *Store) ListAppointments(ctx context.Context, ownerID uint) ([]AppointmentView, error) {
	var appointments []Appointment
	result := s.db.WithContext(ctx).
		Where("created_by = ?", ownerID).
		Order("appointment_date, appointment_time").
		Find(&appointments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", result.Error)
	}

	return s.attachPatientNames(ctx, appointments)
}

// ListAppointmentsForPatient returns the user's appointments for one patient
func (s *Store) ListAppointmentsForPatient(ctx context.Context, patientID, ownerID uint) ([]Appointment, error) {
	var appointments []Appointment
	result := s.db.WithContext(ctx).
		Where("patient_id = ? AND created_by = ?", patientID, ownerID).
		Order("appointment_date, appointment_time").
		Find(&appointments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list appointments for patient: %w", result.Error)
	}

	return appointments, nil
}

// GetAppointment retrieves an owned appointment with the patient name
func (s *Store) GetAppointment(ctx context.Context, id, ownerID uint) (*AppointmentView, error) {
	var appointment Appointment
	result := s.db.WithContext(ctx).First(&appointment, "id = ? AND created_by = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", result.Error)
	}

	views, err := s.attachPatientNames(ctx, []Appointment{appointment})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// UpdateAppointment applies a partial update to an owned appointment.
// Absent keys keep their stored values.
func (s *Store) UpdateAppointment(ctx context.Context, id, ownerID uint, updates map[string]any) (*Appointment, error) {
	var appointment Appointment
	result := s.db.WithContext(ctx).First(&appointment, "id = ? AND created_by = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", result.Error)
	}

	if len(updates) > 0 {
		if result := s.db.WithContext(ctx).Model(&appointment).Updates(updates); result.Error != nil {
			return nil, fmt.Errorf("failed to update appointment: %w", result.Error)
		}
	}

	return &appointment, nil
}

// DeleteAppointment removes an owned appointment row
func (s *Store) DeleteAppointment(ctx context.Context, id, ownerID uint) (*Appointment, error) {
	var appointment Appointment
	result := s.db.WithContext(ctx).First(&appointment, "id = ? AND created_by = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", result.Error)
	}

	if result := s.db.WithContext(ctx).Delete(&appointment); result.Error != nil {
		return nil, fmt.Errorf("failed to delete appointment: %w", result.Error)
	}

	return &appointment, nil
}

// attachPatientNames composes display names with a single patient query
// instead of a database-specific JOIN/CONCAT
func (s *Store) attachPatientNames(ctx context.Context, appointments []Appointment) ([]AppointmentView, error) {
	ids := make([]uint, 0, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.PatientID)
	}

	names := make(map[uint]string)
	if len(ids) > 0 {
		var patients []Patient
		result := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&patients)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to load patient names: %w", result.Error)
		}
		for _, p := range patients {
			names[p.ID] = p.FirstName + " " + p.LastName
		}
	}

	views := make([]AppointmentView, 0, len(appointments))
	for _, a := range appointments {
		views = append(views, AppointmentView{Appointment: a, PatientName: names[a.PatientID]})
	}

	return views, nil
}

/* Sessions */

// CreateSession inserts a session row. The session_id column carries a unique
// index, so a duplicate submission that reaches persistence surfaces as
// ErrDuplicate instead of a second row.
func (s *Store) CreateSession(ctx context.Context, session *Session) error {
	if result := s.db.WithContext(ctx).Create(session); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("session %s already exists: %w", session.SessionID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create session: %w", result.Error)
	}
	return nil
}

// ListSessions returns the user's sessions, optionally filtered by patient,
// newest first
func (s *Store) ListSessions(ctx context.Context, ownerID uint, patientID *uint) ([]Session, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if patientID != nil {
		query = query.Where("patient_id = ?", *patientID)
	}

	var sessions []Session
	result := query.Order("created_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", result.Error)
	}

	return sessions, nil
}

// GetSession retrieves an owned session by row id
func (s *Store) GetSession(ctx context.Context, id, ownerID uint) (*Session, error) {
	var session Session
	result := s.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", result.Error)
	}

	return &session, nil
}

// UpdateSession amends the caller-editable fields of an owned session; nil
// update fields keep their stored values
func (s *Store) UpdateSession(ctx context.Context, id, ownerID uint, update SessionUpdate) (*Session, error) {
	session, err := s.GetSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if update.Transcript != nil {
		session.Transcript = *update.Transcript
	}
	if update.Template != nil {
		session.Template = *update.Template
	}
	if update.AISummary != nil {
		session.AISummary = *update.AISummary
	}
	if update.Status != nil {
		session.Status = *update.Status
	}
	if update.CompletedAt != nil {
		session.CompletedAt = update.CompletedAt
	}

	if result := s.db.WithContext(ctx).Save(session); result.Error != nil {
		return nil, fmt.Errorf("failed to update session: %w", result.Error)
	}

	return session, nil
}

// DeleteSession removes an owned session row
func (s *Store) DeleteSession(ctx context.Context, id, ownerID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

/* Prompt templates */

// CreateTemplate inserts a prompt template; duplicate slugs yield ErrDuplicate
func (s *Store) CreateTemplate(ctx context.Context, template *PromptTemplate) error {
	if result := s.db.WithContext(ctx).Create(template); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("slug %q already in use: %w", template.TemplateSlug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create template: %w", result.Error)
	}
	return nil
}

// ListTemplates returns all prompt templates, newest first
func (s *Store) ListTemplates(ctx context.Context) ([]PromptTemplate, error) {
	var templates []PromptTemplate
	result := s.db.WithContext(ctx).Order("created_at DESC").Find(&templates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list templates: %w", result.Error)
	}

	return templates, nil
}

// GetTemplateContent returns the HTML body of the template with the given slug
func (s *Store) GetTemplateContent(ctx context.Context, slug string) (string, error) {
	var template PromptTemplate
	result := s.db.WithContext(ctx).First(&template, "template_slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get template: %w", result.Error)
	}

	return template.TemplateContent, nil
}

/* Revoked tokens */

// RevokeToken records a token id in the denylist. Revoking the same token
// twice is a no-op so logout stays idempotent.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	token := RevokedToken{JTI: jti, ExpiresAt: expiresAt}
	if result := s.db.WithContext(ctx).Create(&token); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// IsTokenRevoked reports whether the token id is in the denylist
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&RevokedToken{}).Where("jti = ?", jti).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", result.Error)
	}

	return count > 0, nil
}

// PurgeExpiredRevokedTokens deletes denylist rows whose expiry has passed and
// returns how many were removed
func (s *Store) PurgeExpiredRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&RevokedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
