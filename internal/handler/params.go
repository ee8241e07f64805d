package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/internal/service"
	"github.com/BuzzLyutic/task-list/internal/view"
)

type taskRequest struct {
	Task           model.TaskParams `json:"task"`
	IdempotencyKey string           `json:"idempotency_key"`
}

var completionDateLayouts = []string{time.RFC3339, view.DateTimeLocal, "2006-01-02"}

// decodeTaskRequest reads either a JSON body or task[...] form fields.
// Fields missing from the request stay unset in the params.
func decodeTaskRequest(r *http.Request) (taskRequest, error) {
	var req taskRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: invalid json: %v", service.ErrValidation, err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: invalid form: %v", service.ErrValidation, err)
	}
	form := r.PostForm

	if v, ok := form["task[name]"]; ok {
		req.Task.Name = model.Some(first(v))
	}
	if v, ok := form["task[description]"]; ok {
		req.Task.Description = model.Some(first(v))
	}
	if v, ok := form["task[completion_date]"]; ok {
		date, err := parseCompletionDate(first(v))
		if err != nil {
			return req, err
		}
		req.Task.CompletionDate = model.Some(date)
	}
	req.IdempotencyKey = form.Get("idempotency_key")

	return req, nil
}

// parseCompletionDate treats a blank value as "not completed".
func parseCompletionDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range completionDateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: completion date %q is not a valid date", service.ErrValidation, v)
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
