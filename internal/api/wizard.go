package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

// WizardHandler exposes recipe creation wizard sessions
type WizardHandler struct {
	wizard *wizard.Controller
}

func NewWizardHandler(controller *wizard.Controller) *WizardHandler {
	return &WizardHandler{wizard: controller}
}

// RegisterRoutes registers the wizard routes. Only generate and submit are
// guarded against repeats.
func (h *WizardHandler) RegisterRoutes(router *gin.RouterGroup, guards RouteGuards) {
	w := router.Group("/wizard")
	{
		w.POST("", h.Start)
		w.GET("/:id", h.Get)
		w.DELETE("/:id", h.Delete)
		w.POST("/:id/ingredients", h.AddIngredient)
		w.DELETE("/:id/ingredients/:ingredientId", h.RemoveIngredient)
		w.POST("/:id/preferences", h.TogglePreference)
		w.POST("/:id/next", h.Next)
		w.POST("/:id/back", h.Back)
		w.POST("/:id/generate", guards.generate(h.Generate)...)
		w.POST("/:id/selection", h.ToggleSelection)
		w.POST("/:id/submit", guards.submit(h.Submit)...)
	}
}

// Start creates a session, optionally seeded with ingredient names
func (h *WizardHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.CreateWizardRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	s, err := h.wizard.Start(c.Request.Context(), user.ID, req.OldIngredients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *WizardHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.respond(c)(h.wizard.Get(c.Request.Context(), c.Param("id"), user.ID))
}

func (h *WizardHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.wizard.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) AddIngredient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.AddIngredientRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.wizard.AddIngredient(c.Request.Context(), c.Param("id"), user.ID, req.Name, req.Quantity))
}

func (h *WizardHandler) RemoveIngredient(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.respond(c)(h.wizard.RemoveIngredient(c.Request.Context(), c.Param("id"), user.ID, c.Param("ingredientId")))
}

func (h *WizardHandler) TogglePreference(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.TogglePreferenceRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.wizard.TogglePreference(c.Request.Context(), c.Param("id"), user.ID, req.Preference))
}

func (h *WizardHandler) Next(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.respond(c)(h.wizard.Next(c.Request.Context(), c.Param("id"), user.ID))
}

func (h *WizardHandler) Back(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.respond(c)(h.wizard.Back(c.Request.Context(), c.Param("id"), user.ID))
}

// Generate produces candidates for the session. A failed generation leaves
// the session at ReviewAndGenerate.
func (h *WizardHandler) Generate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	h.respond(c)(h.wizard.Generate(c.Request.Context(), c.Param("id"), user.ID))
}

func (h *WizardHandler) ToggleSelection(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ToggleSelectionRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c)(h.wizard.ToggleSelection(c.Request.Context(), c.Param("id"), user.ID, req.OpenAIPromptID))
}

// Submit saves the selection and returns the saved ids and the profile redirect
func (h *WizardHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := h.wizard.Submit(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respond writes the session or the error of a wizard operation
func (h *WizardHandler) respond(c *gin.Context) func(*wizard.Session, error) {
	return func(s *wizard.Session, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
