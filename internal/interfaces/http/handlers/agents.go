package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/valueobject"
	apperrors "github.com/agentops/console/pkg/errors"
)

// AgentHandler serves the agent pages.
type AgentHandler struct {
	agents AgentService
	pages  *Pages
	logger *zap.Logger
}

// NewAgentHandler creates the handler.
func NewAgentHandler(agents AgentService, pages *Pages, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agents: agents,
		pages:  pages,
		logger: logger.With(zap.String("handler", "agents")),
	}
}

type agentFormData struct {
	ID     int64
	Input  usecase.AgentInput
	Models []valueobject.ModelOption
}

// OtherModel is the current model when it is not one of Models, so editing
// such an agent keeps it.
func (d agentFormData) OtherModel() string {
	if d.Input.Model == "" || valueobject.ModelID(d.Input.Model).Known() {
		return ""
	}
	return d.Input.Model
}

// List handles GET /agents.
func (h *AgentHandler) List(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	data := PageData{Title: "Agents", Active: "agents", Data: agents}
	if err != nil {
		data.Notice = &Notice{Text: apperrors.Detail(err, usecase.MsgFetchAgentsFailed), Error: true}
		data.Data = []entity.Agent{}
	}
	h.pages.Render(c, http.StatusOK, "agents.html", data)
}

// New handles GET /agents/new.
func (h *AgentHandler) New(c *gin.Context) {
	h.renderForm(c, http.StatusOK, 0, usecase.AgentInput{Model: string(valueobject.DefaultModel)}, nil)
}

// Edit handles GET /agents/:id/edit.
func (h *AgentHandler) Edit(c *gin.Context) {
	agent, ok := h.find(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, agent.ID, usecase.AgentInput{
		Name:         agent.Name,
		Model:        string(agent.Model),
		SystemPrompt: agent.SystemPrompt,
	}, nil)
}

// Create handles POST /agents.
func (h *AgentHandler) Create(c *gin.Context) {
	h.save(c, 0)
}

// Update handles POST /agents/:id.
func (h *AgentHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Agent not found")
		return
	}
	h.save(c, id)
}

func (h *AgentHandler) save(c *gin.Context, id int64) {
	in := usecase.AgentInput{
		Name:         c.PostForm("name"),
		Model:        c.PostForm("model"),
		SystemPrompt: c.PostForm("system_prompt"),
	}

	saved, err := h.agents.Save(c.Request.Context(), id, in)
	if err != nil {
		text := apperrors.Detail(err, usecase.MsgSaveAgentFailed)
		if apperrors.IsInvalidInput(err) {
			text = validationText(err)
		}
		h.renderForm(c, apperrors.HTTPStatus(err), id, in, &Notice{Text: text, Error: true})
		return
	}

	verb := "created"
	if id != 0 {
		verb = "updated"
	}
	setFlash(c, fmt.Sprintf("Agent %q %s", saved.Name, verb), false)
	c.Redirect(http.StatusSeeOther, "/agents")
}

// ConfirmDelete handles GET /agents/:id/delete.
func (h *AgentHandler) ConfirmDelete(c *gin.Context) {
	agent, ok := h.find(c)
	if !ok {
		return
	}
	h.pages.Render(c, http.StatusOK, "confirm.html", PageData{
		Title:  "Delete agent",
		Active: "agents",
		Data: confirmData{
			Kind:   "agent",
			Name:   agent.Name,
			Action: fmt.Sprintf("/agents/%d/delete", agent.ID),
			Cancel: "/agents",
		},
	})
}

// Delete handles POST /agents/:id/delete.
func (h *AgentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Agent not found")
		return
	}
	name := c.PostForm("name")
	if err := h.agents.Delete(c.Request.Context(), id, name); err != nil {
		setFlash(c, apperrors.Detail(err, usecase.MsgDeleteAgentFailed), true)
	} else {
		setFlash(c, "Agent deleted", false)
	}
	c.Redirect(http.StatusSeeOther, "/agents")
}

// find looks agent :id up in the list; the backend has no single-agent
// read. It renders the error page itself when the lookup fails.
func (h *AgentHandler) find(c *gin.Context) (entity.Agent, bool) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Agent not found")
		return entity.Agent{}, false
	}
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		h.pages.Error(c, apperrors.HTTPStatus(err), apperrors.Detail(err, usecase.MsgFetchAgentsFailed))
		return entity.Agent{}, false
	}
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	h.pages.Error(c, http.StatusNotFound, fmt.Sprintf("Agent %d not found", id))
	return entity.Agent{}, false
}

func (h *AgentHandler) renderForm(c *gin.Context, status int, id int64, in usecase.AgentInput, notice *Notice) {
	title := "Create Agent"
	if id != 0 {
		title = "Edit Agent"
	}
	h.pages.Render(c, status, "agent_form.html", PageData{
		Title:  title,
		Active: "agents",
		Notice: notice,
		Data:   agentFormData{ID: id, Input: in, Models: valueobject.ModelOptions()},
	})
}

type confirmData struct {
	Kind   string
	Name   string
	Action string
	Cancel string
}

// validationText capitalizes a validation error for display.
func validationText(err error) string {
	msg := apperrors.Detail(err, "Invalid input")
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
