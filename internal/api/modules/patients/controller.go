package patients

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	auth_module "github.com/clinicvoice/server/internal/api/modules/auth"
	"github.com/clinicvoice/server/internal/stores/clinic"
)

// Module state, set once by Init
var patientStore *clinic.Store

// Init wires the patients module to its store
func Init(store *clinic.Store) {
	patientStore = store
}

type patientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Sex       string `json:"sex"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Status    string `json:"status"`
}

func (r *patientRequest) validate() bool {
	return r.FirstName != "" && r.LastName != "" && r.Phone != "" && r.Status != ""
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreatePatient handles POST requests to create a patient owned by the caller
func CreatePatient(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	if !req.validate() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Required fields: first_name, last_name, phone, status"})
		return
	}

	patient := &clinic.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Sex:       req.Sex,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Status:    req.Status,
		LastVisit: time.Now().Format("2006-01-02"),
		CreatedBy: userID,
	}

	if err := patientStore.CreatePatient(c.Request.Context(), patient); err != nil {
		log.Printf("[PATIENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create patient."})
		return
	}

	c.JSON(http.StatusCreated, patient)
}

// ListPatients handles GET requests for all of the caller's patients
func ListPatients(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	patients, err := patientStore.ListPatients(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[PATIENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch patients."})
		return
	}

	c.JSON(http.StatusOK, patients)
}

// GetPatient handles GET requests for a single owned patient
func GetPatient(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient id"})
		return
	}

	patient, err := patientStore.GetPatient(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found or you do not have access to this patient."})
			return
		}
		log.Printf("[PATIENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch patient."})
		return
	}

	c.JSON(http.StatusOK, patient)
}

// UpdatePatient handles PUT requests to replace an owned patient's fields
func UpdatePatient(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient id"})
		return
	}

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request body"})
		return
	}

	if !req.validate() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Required fields: first_name, last_name, phone, status"})
		return
	}

	patient, err := patientStore.UpdatePatient(c.Request.Context(), id, userID, &clinic.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Sex:       req.Sex,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Status:    req.Status,
		LastVisit: time.Now().Format("2006-01-02"),
	})
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found or you do not have permission to update this patient."})
			return
		}
		log.Printf("[PATIENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update patient."})
		return
	}

	c.JSON(http.StatusOK, patient)
}

// DeletePatient handles DELETE requests to remove an owned patient
func DeletePatient(c *gin.Context) {
	userID, _ := auth_module.CurrentUserID(c)

	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient id"})
		return
	}

	patient, err := patientStore.DeletePatient(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found or you do not have permission to delete this patient."})
			return
		}
		log.Printf("[PATIENTS]: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete patient."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted.", "patient": patient})
}
