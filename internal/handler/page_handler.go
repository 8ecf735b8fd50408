package handler

import "net/http"

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Home(r *http.Request) Outcome {
	return Page("index")
}

func (h *PageHandler) About(r *http.Request) Outcome {
	return Page("about")
}
