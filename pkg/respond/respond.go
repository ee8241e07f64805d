package respond

import (
	"encoding/json"
	"net/http"

	"github.com/BuzzLyutic/task-list/pkg/flash"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}

func HTML(w http.ResponseWriter, r *http.Request, code int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}

// Redirection is the response of an action that ends in a redirect,
// optionally carrying a flash message for the page it lands on.
type Redirection struct {
	Location string
	Flash    *flash.Message
}

func Redirect(w http.ResponseWriter, r *http.Request, rd Redirection) {
	if rd.Flash != nil {
		if err := flash.Set(w, *rd.Flash); err != nil {
			Error(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}
	http.Redirect(w, r, rd.Location, http.StatusFound)
}
