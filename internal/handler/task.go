package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/internal/repo"
	"github.com/BuzzLyutic/task-list/internal/service"
	"github.com/BuzzLyutic/task-list/internal/view"
	"github.com/BuzzLyutic/task-list/pkg/flash"
	"github.com/BuzzLyutic/task-list/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	views   *view.Renderer
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, views *view.Renderer, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		views:   views,
		logger:  logger,
	}
}

// Routes mounts every task route on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get(RootPath, h.Index)
	r.Get("/stats", h.Stats)

	r.Route(TasksPath, func(r chi.Router) {
		r.Get("/", h.Index)
		r.Post("/", h.Create)
		r.Get("/new", h.New)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/edit", h.Edit)
		r.Patch("/{id}", h.Update)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Destroy)
		r.Patch("/{id}/mark_complete", h.ToggleComplete)
	})
}

func (h *TaskHandler) Index(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.PageIndex, view.Page{Title: "Tasks", Tasks: tasks})
}

func (h *TaskHandler) Show(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.PageShow, view.Page{Title: task.Name, Task: task})
}

func (h *TaskHandler) New(w http.ResponseWriter, r *http.Request) {
	form := view.Form{Action: TasksPath, Method: http.MethodPost, IdempotencyKey: uuid.NewString()}
	h.render(w, r, http.StatusOK, view.PageNew, view.Page{Title: "New Task", Form: form})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTaskRequest(r)
	if err == nil {
		idempKey := r.Header.Get("Idempotency-Key")
		if idempKey == "" {
			idempKey = req.IdempotencyKey
		}

		var task model.Task
		task, err = h.service.Create(r.Context(), req.Task, idempKey)
		if err == nil {
			respond.Redirect(w, r, respond.Redirection{Location: TaskPath(task.ID)})
			return
		}
	}

	if !errors.Is(err, service.ErrValidation) {
		h.handleErrors(w, r, err)
		return
	}

	form := view.FormFor(req.Task.Apply(model.Task{}), TasksPath, http.MethodPost)
	form.IdempotencyKey = req.IdempotencyKey
	h.render(w, r, http.StatusUnprocessableEntity, view.PageNew, view.Page{
		Title:  "New Task",
		Form:   form,
		Errors: []string{validationMessage(err)},
	})
}

func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, view.PageEdit, view.Page{
		Title: "Edit Task",
		Task:  task,
		Form:  view.FormFor(task, TaskPath(task.ID), http.MethodPatch),
	})
}

// Update redirects to the root page when the id does not resolve.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Redirect(w, r, respond.Redirection{Location: RootPath})
		return
	}

	req, err := decodeTaskRequest(r)
	var task model.Task
	if err == nil {
		task, err = h.service.Update(r.Context(), id, req.Task)
	}

	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Redirect(w, r, respond.Redirection{Location: RootPath})
	case errors.Is(err, service.ErrValidation):
		h.renderInvalidEdit(w, r, id, req.Task, err)
	case err != nil:
		h.handleErrors(w, r, err)
	default:
		respond.Redirect(w, r, respond.Redirection{Location: TaskPath(task.ID)})
	}
}

func (h *TaskHandler) renderInvalidEdit(w http.ResponseWriter, r *http.Request, id int64, p model.TaskParams, cause error) {
	found, err := h.service.Find(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if !found.Found {
		respond.Redirect(w, r, respond.Redirection{Location: RootPath})
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, view.PageEdit, view.Page{
		Title:  "Edit Task",
		Task:   found.Task,
		Form:   view.FormFor(p.Apply(found.Task), TaskPath(id), http.MethodPatch),
		Errors: []string{validationMessage(cause)},
	})
}

// Destroy always lands on the root page.
func (h *TaskHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	home := respond.Redirection{Location: RootPath}

	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Redirect(w, r, home)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil && !errors.Is(err, repo.ErrorNotFound) {
		h.handleErrors(w, r, err)
		return
	}
	respond.Redirect(w, r, home)
}

// ToggleComplete redirects back to the task's page. An unknown id is echoed
// into that redirect unchanged, which lands on a page that will itself
// redirect with a not-found flash.
func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	back := respond.Redirection{Location: TaskPath(raw)}

	id, err := service.ParseID(raw)
	if err != nil {
		respond.Redirect(w, r, back)
		return
	}

	task, err := h.service.ToggleCompletion(r.Context(), id)
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Redirect(w, r, back)
	case err != nil:
		h.handleErrors(w, r, err)
	default:
		h.logger.Debug("task completion toggled",
			zap.Int64("task_id", task.ID),
			zap.Bool("complete", task.IsComplete()),
		)
		respond.Redirect(w, r, respond.Redirection{Location: TaskPath(task.ID)})
	}
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

// lookup resolves the {id} route param to a task. When it returns false the
// not-found redirect, with its flash, has already been written.
func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	raw := chi.URLParam(r, "id")
	notFound := respond.Redirection{Location: TasksPath, Flash: flash.Error(NotFoundMessage(raw))}

	id, err := service.ParseID(raw)
	if err != nil {
		respond.Redirect(w, r, notFound)
		return model.Task{}, false
	}

	found, err := h.service.Find(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return model.Task{}, false
	}
	if !found.Found {
		h.logger.Debug("task not found", zap.String("id", raw))
		respond.Redirect(w, r, notFound)
		return model.Task{}, false
	}
	return found.Task, true
}

// render pops any pending flash into the page before writing it.
func (h *TaskHandler) render(w http.ResponseWriter, r *http.Request, code int, page string, data view.Page) {
	data.Flash = flash.Pop(w, r)

	body, err := h.views.Render(page, data)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.HTML(w, r, code, body)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, validationMessage(err))
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
}
