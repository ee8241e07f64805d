package handler

import (
	"fmt"
	"net/url"
)

const (
	RootPath    = "/"
	TasksPath   = "/tasks"
	NewTaskPath = "/tasks/new"
)

// TaskPath accepts the raw id too, so unresolvable ids can still be echoed back.
func TaskPath(id any) string {
	return fmt.Sprintf("/tasks/%v", id)
}

func EditTaskPath(id any) string {
	return fmt.Sprintf("/tasks/%v/edit", id)
}

func MarkTaskPath(id any) string {
	return fmt.Sprintf("/tasks/%v/mark_complete", id)
}

// NotFoundMessage is the flash text for an id that does not resolve.
// Escaped path segments are shown decoded.
func NotFoundMessage(id string) string {
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	return "Could not find task with id: " + id
}
