package apihandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"polyclassify/internal/app"
	"polyclassify/internal/models"
	"polyclassify/internal/services"
	"polyclassify/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(app *app.App) *APIHandler {
	return &APIHandler{App: app}
}

// AddLabelRequest represents the JSON body to add a label
type AddLabelRequest struct {
	Name string `json:"name"`
}

// AddExampleRequest represents the JSON body to add a few-shot example.
// Language is optional and detected from the text when omitted.
type AddExampleRequest struct {
	Text     string `json:"text"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

// ClassifyRequest represents the JSON body of a classification attempt
type ClassifyRequest struct {
	Text string `json:"text"`
}

func (h *APIHandler) ListLabelsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.App.SessionService.Labels()})
}

func (h *APIHandler) AddLabelHandler(c *gin.Context) {
	var req AddLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	name, err := h.App.SessionService.AddLabel(req.Name)
	switch {
	case errors.Is(err, models.ErrValidation):
		BadRequest(c, err.Error())
		return
	case errors.Is(err, store.ErrDuplicate):
		Conflict(c, fmt.Sprintf("Label already exists: %s", strings.TrimSpace(req.Name)))
		return
	case err != nil:
		Internal(c, fmt.Sprintf("AddLabelHandler: failed to add label: %v", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": name})
}

func (h *APIHandler) DeleteLabelHandler(c *gin.Context) {
	name := c.Param("name")
	if err := h.App.SessionService.RemoveLabel(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, fmt.Sprintf("Label not found: %s", name))
		} else {
			Internal(c, fmt.Sprintf("DeleteLabelHandler: failed to remove label: %v", err))
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) ListExamplesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.App.SessionService.Examples()})
}

func (h *APIHandler) AddExampleHandler(c *gin.Context) {
	var req AddExampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ex, err := h.App.SessionService.AddExample(req.Text, req.Label, req.Language)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			BadRequest(c, err.Error())
		} else {
			Internal(c, fmt.Sprintf("AddExampleHandler: failed to add example: %v", err))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": ex})
}

func (h *APIHandler) DeleteExampleHandler(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		BadRequest(c, fmt.Sprintf("Invalid example ID format: %s", idStr))
		return
	}

	if err := h.App.SessionService.RemoveExample(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, fmt.Sprintf("Example not found with ID: %s", id))
		} else {
			Internal(c, fmt.Sprintf("DeleteExampleHandler: failed to remove example: %v", err))
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ClassifyHandler runs one classification attempt against the session's labels and examples.
func (h *APIHandler) ClassifyHandler(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	// The attempt outlives the request; classification.timeout is its only deadline.
	state, err := h.App.ClassificationService.Submit(context.WithoutCancel(c.Request.Context()), req.Text)
	if err != nil {
		respondWithClassificationError(c, state, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

// respondWithClassificationError maps a failed attempt to a status code.
func respondWithClassificationError(c *gin.Context, state models.ClassificationState, err error) {
	msg := state.Error
	if msg == "" {
		msg = err.Error()
	}

	switch {
	case errors.Is(err, services.ErrEmptyInput):
		BadRequest(c, err.Error())
	case errors.Is(err, services.ErrBusy):
		Conflict(c, err.Error())
	case errors.Is(err, models.ErrConfiguration), errors.Is(err, models.ErrContract):
		Unprocessable(c, msg)
	case errors.Is(err, models.ErrTransport):
		BadGateway(c, msg)
	default:
		log.Errorf("Unclassified classification failure: %v", err)
		Internal(c, msg)
	}
}

func (h *APIHandler) StateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.App.ClassificationService.State()})
}

// UsageHandler reports token and cost totals for this process.
func (h *APIHandler) UsageHandler(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := h.App.CostTracker.Summary(ctx)
	if err != nil {
		Internal(c, fmt.Sprintf("UsageHandler: failed to summarize usage: %v", err))
		return
	}
	records, err := h.App.CostTracker.Records(ctx)
	if err != nil {
		Internal(c, fmt.Sprintf("UsageHandler: failed to list usage: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"records": records,
	})
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	p := h.App.Provider
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"provider":        p.Name(),
		"model":           p.ModelName(),
		"provider_status": p.Status().String(),
	})
}

// RegisterRoutes mounts the API under /api/v1.
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		labelGroup := v1.Group("/labels")
		{
			labelGroup.GET("", h.ListLabelsHandler)
			labelGroup.POST("", h.AddLabelHandler)
			labelGroup.DELETE("/:name", h.DeleteLabelHandler)
		}

		exampleGroup := v1.Group("/examples")
		{
			exampleGroup.GET("", h.ListExamplesHandler)
			exampleGroup.POST("", h.AddExampleHandler)
			exampleGroup.DELETE("/:id", h.DeleteExampleHandler)
		}

		v1.POST("/classify", h.ClassifyHandler)
		v1.GET("/state", h.StateHandler)
		v1.GET("/usage", h.UsageHandler)
		v1.GET("/health", h.HealthHandler)
	}
}
