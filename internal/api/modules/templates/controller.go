package templates

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicvoice/server/internal/stores/clinic"
)

// Module state, set once by Init
var (
	templateStore *clinic.Store
	devMode       bool
)

// Init wires the templates module to its store
func Init(store *clinic.Store, dev bool) {
	templateStore = store
	devMode = dev
}

type createRequest struct {
	TemplateType    string `json:"template_type"`
	TemplateSlug    string `json:"template_slug"`
	TemplateContent string `json:"template_content"`
	CreatedBy       uint   `json:"created_by"`
}

// CreateTemplate handles POST requests to add a prompt template
func CreateTemplate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not parse request body"})
		return
	}

	if req.TemplateType == "" || req.TemplateSlug == "" || req.TemplateContent == "" || req.CreatedBy == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "All fields (template_type, template_slug, template_content, created_by) are required",
		})
		return
	}

	template := &clinic.PromptTemplate{
		TemplateType:    req.TemplateType,
		TemplateSlug:    req.TemplateSlug,
		TemplateContent: req.TemplateContent,
		CreatedBy:       req.CreatedBy,
	}

	if err := templateStore.CreateTemplate(c.Request.Context(), template); err != nil {
		if errors.Is(err, clinic.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Template slug already exists",
				"details": fmt.Sprintf("Slug '%s' is already in use", req.TemplateSlug),
			})
			return
		}

		log.Printf("[TEMPLATES]: %v", err)
		body := gin.H{"error": "Internal server error"}
		if devMode {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// ListTemplates handles GET requests for all prompt templates
func ListTemplates(c *gin.Context) {
	templates, err := templateStore.ListTemplates(c.Request.Context())
	if err != nil {
		log.Printf("[TEMPLATES]: %v", err)
		body := gin.H{"error": "Server error"}
		if devMode {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusOK, templates)
}
