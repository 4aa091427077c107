package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

// WorkflowHandler serves the workflow pages and runs.
type WorkflowHandler struct {
	workflows WorkflowService
	pages     *Pages
	logger    *zap.Logger
}

// NewWorkflowHandler creates the handler.
func NewWorkflowHandler(workflows WorkflowService, pages *Pages, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflows: workflows,
		pages:     pages,
		logger:    logger.With(zap.String("handler", "workflows")),
	}
}

type workflowFormData struct {
	Input    usecase.WorkflowInput
	Problems []entity.TaskProblem
}

type runData struct {
	Workflow string
	ID       int64
	Failed   bool
	Error    string
	Status   string
	Entries  []entity.RunEntry
	Messages []entity.RunMessage
}

const tasksPlaceholder = `[
  {"step": 1, "agent_id": 1, "instruction": "Research the topic"}
]`

// List handles GET /workflows.
func (h *WorkflowHandler) List(c *gin.Context) {
	h.renderList(c, http.StatusOK, nil)
}

func (h *WorkflowHandler) renderList(c *gin.Context, status int, notice *Notice) {
	workflows, err := h.workflows.List(c.Request.Context())
	if err != nil {
		workflows = []entity.Workflow{}
		if notice == nil {
			notice = &Notice{Text: apperrors.Detail(err, usecase.MsgFetchWorkflowsFailed), Error: true}
		}
	}
	h.pages.Render(c, status, "workflows.html", PageData{
		Title:  "Workflows",
		Active: "workflows",
		Notice: notice,
		Data:   workflows,
	})
}

// New handles GET /workflows/new.
func (h *WorkflowHandler) New(c *gin.Context) {
	h.renderForm(c, http.StatusOK, usecase.WorkflowInput{TasksText: tasksPlaceholder}, nil, nil)
}

// Create handles POST /workflows. Tasks arrive as JSON text and are parsed
// before anything is sent to the backend.
func (h *WorkflowHandler) Create(c *gin.Context) {
	in := usecase.WorkflowInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		TasksText:   c.PostForm("tasks"),
	}
	if in.TasksText == "" {
		in.TasksText = "[]"
	}

	created, err := h.workflows.Create(c.Request.Context(), in)
	if err != nil {
		var problems []entity.TaskProblem
		text := apperrors.Detail(err, usecase.MsgCreateWorkflowFailed)
		if apperrors.IsInvalidInput(err) {
			text = validationText(err)
			problems = rowProblems(in.TasksText)
		}
		h.renderForm(c, apperrors.HTTPStatus(err), in, problems, &Notice{Text: text, Error: true})
		return
	}

	setFlash(c, fmt.Sprintf("Workflow %q created", created.Name), false)
	c.Redirect(http.StatusSeeOther, "/workflows")
}

// rowProblems lists per-row problems when the text is at least a JSON array.
func rowProblems(text string) []entity.TaskProblem {
	var tasks entity.TaskList
	if err := tasks.UnmarshalJSON([]byte(text)); err != nil {
		return nil
	}
	return tasks.Problems()
}

// ConfirmDelete handles GET /workflows/:id/delete.
func (h *WorkflowHandler) ConfirmDelete(c *gin.Context) {
	w, ok := h.find(c)
	if !ok {
		return
	}
	h.pages.Render(c, http.StatusOK, "confirm.html", PageData{
		Title:  "Delete workflow",
		Active: "workflows",
		Data: confirmData{
			Kind:   "workflow",
			Name:   w.Name,
			Action: fmt.Sprintf("/workflows/%d/delete", w.ID),
			Cancel: "/workflows",
		},
	})
}

// Delete handles POST /workflows/:id/delete.
func (h *WorkflowHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Workflow not found")
		return
	}
	if err := h.workflows.Delete(c.Request.Context(), id, c.PostForm("name")); err != nil {
		setFlash(c, apperrors.Detail(err, usecase.MsgDeleteWorkflowFailed), true)
	} else {
		setFlash(c, "Workflow deleted", false)
	}
	c.Redirect(http.StatusSeeOther, "/workflows")
}

// Run handles POST /workflows/:id/run. A run already in flight for the same
// workflow answers 409 with the list page; a failed run renders the result
// page as a blocking alert.
func (h *WorkflowHandler) Run(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Workflow not found")
		return
	}
	name := c.PostForm("name")

	result, err := h.workflows.Run(c.Request.Context(), id, name)
	if apperrors.IsConflict(err) {
		h.logger.Info("Run rejected, already in flight", zap.Int64("id", id))
		h.renderList(c, http.StatusConflict, &Notice{Text: apperrors.Detail(err, usecase.MsgRunWorkflowFailed), Error: true})
		return
	}

	data := runData{Workflow: name, ID: id}
	status := http.StatusOK
	if err != nil {
		data.Failed = true
		data.Error = apperrors.Detail(err, usecase.MsgRunWorkflowFailed)
		status = apperrors.HTTPStatus(err)
	}
	if result != nil {
		data.Status = result.Status
		data.Entries = result.Entries()
		data.Messages = result.Messages
	}
	h.pages.Render(c, status, "run.html", PageData{
		Title:  "Run result",
		Active: "workflows",
		Data:   data,
	})
}

func (h *WorkflowHandler) find(c *gin.Context) (entity.Workflow, bool) {
	id, ok := paramID(c)
	if !ok {
		h.pages.Error(c, http.StatusNotFound, "Workflow not found")
		return entity.Workflow{}, false
	}
	workflows, err := h.workflows.List(c.Request.Context())
	if err != nil {
		h.pages.Error(c, apperrors.HTTPStatus(err), apperrors.Detail(err, usecase.MsgFetchWorkflowsFailed))
		return entity.Workflow{}, false
	}
	for _, w := range workflows {
		if w.ID == id {
			return w, true
		}
	}
	h.pages.Error(c, http.StatusNotFound, fmt.Sprintf("Workflow %d not found", id))
	return entity.Workflow{}, false
}

func (h *WorkflowHandler) renderForm(c *gin.Context, status int, in usecase.WorkflowInput, problems []entity.TaskProblem, notice *Notice) {
	h.pages.Render(c, status, "workflow_form.html", PageData{
		Title:  "Create Workflow",
		Active: "workflows",
		Notice: notice,
		Data:   workflowFormData{Input: in, Problems: problems},
	})
}
