// Package flash carries one-time user notifications across a redirect in a
// signed per-client cookie.
package flash

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

type Category string

const (
	Success Category = "success"
	Info    Category = "info"
	Warning Category = "warning"
	Danger  Category = "danger"
)

const cookieName = "flash"

type Message struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

func New(category Category, text string) Message {
	return Message{Category: category, Text: text}
}

type Jar struct {
	codec *securecookie.SecureCookie
}

func NewJar(hashKey []byte) *Jar {
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(300)
	return &Jar{codec: codec}
}

// Set queues messages for the next page the client renders.
func (j *Jar) Set(w http.ResponseWriter, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	encoded, err := j.codec.Encode(cookieName, msgs)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the queued messages and clears the cookie. A tampered or
// stale cookie yields no messages.
func (j *Jar) Pop(w http.ResponseWriter, r *http.Request) []Message {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	var msgs []Message
	if err := j.codec.Decode(cookieName, c.Value, &msgs); err != nil {
		return nil
	}
	return msgs
}
