// Package flash carries a one-shot status message to the next rendered page
// in a short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

const CookieName = "_flash"

type Kind string

const KindError Kind = "error"

type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

func Error(text string) *Message {
	return &Message{Kind: KindError, Text: text}
}

// Set stores m for the next request.
func Set(w http.ResponseWriter, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending message, if any, and expires the cookie so the
// message is shown once.
func Pop(w http.ResponseWriter, r *http.Request) *Message {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	m, err := Decode(c)
	if err != nil {
		return nil
	}
	return &m
}

func Decode(c *http.Cookie) (Message, error) {
	var m Message
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
