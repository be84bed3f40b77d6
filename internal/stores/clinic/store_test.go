package clinic

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens a throwaway sqlite database for one test
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "clinic.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, err := NewStoreWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestCreateUserWithOrganization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &User{FirstName: "Ada", LastName: "Reyes", Email: "ada@example.com", PasswordHash: "hash"}
	org := &Organization{Name: "Reyes Clinic", Country: "ES"}

	require.NoError(t, store.CreateUserWithOrganization(ctx, user, org))

	assert.NotZero(t, user.ID)
	assert.Equal(t, org.ID, user.OrganizationID)
	require.NotNil(t, org.OwnerID)
	assert.Equal(t, user.ID, *org.OwnerID)

	found, err := store.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	t.Run("duplicate email", func(t *testing.T) {
		dup := &User{FirstName: "Ada", LastName: "Reyes", Email: "ada@example.com", PasswordHash: "hash"}
		err := store.CreateUserWithOrganization(ctx, dup, &Organization{Name: "Other"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := store.FindUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPatientOwnership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	patient := &Patient{FirstName: "Sam", LastName: "Odum", Phone: "555-0100", Status: "active", CreatedBy: 1}
	require.NoError(t, store.CreatePatient(ctx, patient))

	t.Run("owner can read", func(t *testing.T) {
		got, err := store.GetPatient(ctx, patient.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "Sam", got.FirstName)
	})

	t.Run("other user gets not found", func(t *testing.T) {
		_, err := store.GetPatient(ctx, patient.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other user cannot update", func(t *testing.T) {
		_, err := store.UpdatePatient(ctx, patient.ID, 2, &Patient{FirstName: "X"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		_, err := store.DeletePatient(ctx, patient.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update replaces fields", func(t *testing.T) {
		updated, err := store.UpdatePatient(ctx, patient.ID, 1, &Patient{
			FirstName: "Samuel", LastName: "Odum", Phone: "555-0101", Status: "inactive", LastVisit: "2026-08-29",
		})
		require.NoError(t, err)
		assert.Equal(t, "Samuel", updated.FirstName)
		assert.Equal(t, "555-0101", updated.Phone)
		assert.Equal(t, "2026-08-29", updated.LastVisit)
	})

	t.Run("list is scoped to owner", func(t *testing.T) {
		other := &Patient{FirstName: "Eve", LastName: "L", Phone: "555", Status: "active", CreatedBy: 2}
		require.NoError(t, store.CreatePatient(ctx, other))

		mine, err := store.ListPatients(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("ownership check", func(t *testing.T) {
		owned, err := store.PatientOwnedBy(ctx, patient.ID, 1)
		require.NoError(t, err)
		assert.True(t, owned)

		owned, err = store.PatientOwnedBy(ctx, patient.ID, 2)
		require.NoError(t, err)
		assert.False(t, owned)
	})
}

func TestAppointments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	patient := &Patient{FirstName: "Noa", LastName: "Bell", Phone: "555-0100", Status: "active", CreatedBy: 1}
	require.NoError(t, store.CreatePatient(ctx, patient))

	appointment := &Appointment{
		PatientID:       patient.ID,
		AppointmentDate: "2026-09-01",
		AppointmentTime: "10:30",
		Reason:          "follow-up",
		Status:          AppointmentStatusScheduled,
		CreatedBy:       1,
	}
	require.NoError(t, store.CreateAppointment(ctx, appointment))

	t.Run("list includes patient name", func(t *testing.T) {
		views, err := store.ListAppointments(ctx, 1)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "Noa Bell", views[0].PatientName)
	})

	t.Run("get scoped to owner", func(t *testing.T) {
		view, err := store.GetAppointment(ctx, appointment.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "follow-up", view.Reason)

		_, err = store.GetAppointment(ctx, appointment.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		updated, err := store.UpdateAppointment(ctx, appointment.ID, 1, map[string]any{
			"status": AppointmentStatusCompleted,
		})
		require.NoError(t, err)
		assert.Equal(t, AppointmentStatusCompleted, updated.Status)
		assert.Equal(t, "follow-up", updated.Reason)
		assert.Equal(t, "2026-09-01", updated.AppointmentDate)
	})

	t.Run("list for patient", func(t *testing.T) {
		appointments, err := store.ListAppointmentsForPatient(ctx, patient.ID, 1)
		require.NoError(t, err)
		assert.Len(t, appointments, 1)
	})

	t.Run("delete scoped to owner", func(t *testing.T) {
		_, err := store.DeleteAppointment(ctx, appointment.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.DeleteAppointment(ctx, appointment.ID, 1)
		require.NoError(t, err)

		_, err = store.GetAppointment(ctx, appointment.ID, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	session := &Session{
		SessionID:   "sess-abc",
		UserID:      1,
		PatientID:   7,
		AudioFile:   "/data/audio/audio-1.webm",
		Transcript:  "patient reports headache",
		Template:    "soap-note",
		AISummary:   "<h2>Summary</h2>",
		Status:      SessionStatusCompleted,
		CompletedAt: &now,
	}
	require.NoError(t, store.CreateSession(ctx, session))

	t.Run("duplicate session id", func(t *testing.T) {
		dup := &Session{SessionID: "sess-abc", UserID: 1, PatientID: 7, Status: SessionStatusCompleted}
		err := store.CreateSession(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("round trip", func(t *testing.T) {
		got, err := store.GetSession(ctx, session.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, session.Transcript, got.Transcript)
		assert.Equal(t, session.AISummary, got.AISummary)
		assert.Equal(t, SessionStatusCompleted, got.Status)
	})

	t.Run("foreign user gets not found", func(t *testing.T) {
		_, err := store.GetSession(ctx, session.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list filtered by patient", func(t *testing.T) {
		other := &Session{SessionID: "sess-def", UserID: 1, PatientID: 8, Status: SessionStatusCompleted}
		require.NoError(t, store.CreateSession(ctx, other))

		patientID := uint(7)
		sessions, err := store.ListSessions(ctx, 1, &patientID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "sess-abc", sessions[0].SessionID)

		all, err := store.ListSessions(ctx, 1, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("update amends only provided fields", func(t *testing.T) {
		transcript := "edited transcript"
		summary := "<h2>Edited</h2>"
		updated, err := store.UpdateSession(ctx, session.ID, 1, SessionUpdate{
			Transcript: &transcript,
			AISummary:  &summary,
		})
		require.NoError(t, err)
		assert.Equal(t, "edited transcript", updated.Transcript)

		got, err := store.GetSession(ctx, session.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "edited transcript", got.Transcript)
		assert.Equal(t, "<h2>Edited</h2>", got.AISummary)

		// Untouched fields keep their stored values
		assert.Equal(t, "soap-note", got.Template)
		assert.Equal(t, SessionStatusCompleted, got.Status)
	})

	t.Run("delete then get returns not found", func(t *testing.T) {
		err := store.DeleteSession(ctx, session.ID, 2)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.DeleteSession(ctx, session.ID, 1))

		_, err = store.GetSession(ctx, session.ID, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPromptTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	template := &PromptTemplate{
		TemplateType:    "visit",
		TemplateSlug:    "soap-note",
		TemplateContent: "<h2>SOAP</h2>",
		CreatedBy:       1,
	}
	require.NoError(t, store.CreateTemplate(ctx, template))

	t.Run("duplicate slug", func(t *testing.T) {
		dup := &PromptTemplate{TemplateType: "visit", TemplateSlug: "soap-note", TemplateContent: "<p>x</p>", CreatedBy: 2}
		err := store.CreateTemplate(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("content by slug", func(t *testing.T) {
		content, err := store.GetTemplateContent(ctx, "soap-note")
		require.NoError(t, err)
		assert.Equal(t, "<h2>SOAP</h2>", content)

		_, err = store.GetTemplateContent(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		templates, err := store.ListTemplates(ctx)
		require.NoError(t, err)
		assert.Len(t, templates, 1)
	})
}

func TestRevokedTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour)
	require.NoError(t, store.RevokeToken(ctx, "jti-1", expires))

	t.Run("revoking twice is a no-op", func(t *testing.T) {
		assert.NoError(t, store.RevokeToken(ctx, "jti-1", expires))
	})

	t.Run("revoked lookup", func(t *testing.T) {
		revoked, err := store.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = store.IsTokenRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge removes only expired rows", func(t *testing.T) {
		require.NoError(t, store.RevokeToken(ctx, "jti-old", time.Now().Add(-time.Hour)))

		purged, err := store.PurgeExpiredRevokedTokens(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)

		revoked, err := store.IsTokenRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
