package appointments

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
	"github.com/clinicvoice/server/internal/stores/clinic"
)

// Module state, set once by Init
var appointmentStore *clinic.Store

// Init wires the appointments module to its store
func Init(store *clinic.Store) {
	appointmentStore = store
}

type createRequest struct {
	PatientID       uint   `json:"patient_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
}

// updateRequest uses pointers so absent fields keep their stored values
type updateRequest struct {
	PatientID       *uint   `json:"patient_id"`
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	Reason          *string `json:"reason"`
	Status          *string `json:"status"`
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreateAppointment handles POST requests to schedule a visit. The referenced
// patient must belong to the caller.
func CreateAppointment(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	if req.PatientID == 0 || req.AppointmentDate == "" || req.AppointmentTime == "" || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Required fields: patient_id, appointment_date, appointment_time, reason"})
		return
	}

	owned, err := appointmentStore.PatientOwnedBy(c.Request.Context(), req.PatientID, userID)
	if err != nil {
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create appointment."})
		return
	}
	if !owned {
		c.JSON(http.StatusForbidden, gin.H{"message": "Patient not found or not authorized"})
		return
	}

	status := req.Status
	if status == "" {
		status = clinic.AppointmentStatusScheduled
	}

	appointment := &clinic.Appointment{
		PatientID:       req.PatientID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Status:          status,
		CreatedBy:       userID,
	}

	if err := appointmentStore.CreateAppointment(c.Request.Context(), appointment); err != nil {
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create appointment."})
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// ListAppointments handles GET requests for all of the caller's appointments
func ListAppointments(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	appointments, err := appointmentStore.ListAppointments(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch appointments."})
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// ListAppointmentsForPatient handles GET requests for one patient's
// appointments, verifying the patient belongs to the caller first
func ListAppointmentsForPatient(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	patientID, ok := pathID(c, "patient_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient id"})
		return
	}

	owned, err := appointmentStore.PatientOwnedBy(c.Request.Context(), patientID, userID)
	if err != nil {
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch appointments for patient."})
		return
	}
	if !owned {
		c.JSON(http.StatusForbidden, gin.H{"message": "Patient not found or not authorized"})
		return
	}

	appointments, err := appointmentStore.ListAppointmentsForPatient(c.Request.Context(), patientID, userID)
	if err != nil {
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch appointments for patient."})
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetAppointment handles GET requests for a single owned appointment
func GetAppointment(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid appointment id"})
		return
	}

	appointment, err := appointmentStore.GetAppointment(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Appointment not found or not authorized."})
			return
		}
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch appointment."})
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment handles PUT requests to partially update an owned
// appointment; absent fields keep their stored values
func UpdateAppointment(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid appointment id"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	updates := map[string]any{}
	if req.PatientID != nil {
		updates["patient_id"] = *req.PatientID
	}
	if req.AppointmentDate != nil {
		updates["appointment_date"] = *req.AppointmentDate
	}
	if req.AppointmentTime != nil {
		updates["appointment_time"] = *req.AppointmentTime
	}
	if req.Reason != nil {
		updates["reason"] = *req.Reason
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	appointment, err := appointmentStore.UpdateAppointment(c.Request.Context(), id, userID, updates)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Appointment not found or not authorized."})
			return
		}
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update appointment."})
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment handles DELETE requests to remove an owned appointment
func DeleteAppointment(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid appointment id"})
		return
	}

	appointment, err := appointmentStore.DeleteAppointment(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Appointment not found or not authorized."})
			return
		}
		log.Printf("[APPOINTMENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete appointment."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted.", "appointment": appointment})
}
