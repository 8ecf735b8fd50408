package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"

	"studentintake/internal/flash"
	"studentintake/internal/middleware"
	"studentintake/internal/model"
	"studentintake/internal/render"
	"studentintake/internal/service"
)

type StudentStore interface {
	Submit(ctx context.Context, form service.StudentForm) (*model.Student, error)
	ListStudents(ctx context.Context, q service.StudentQuery) ([]model.Student, int64, int, error)
}

type StudentHandler struct {
	studentService StudentStore
}

func NewStudentHandler(studentService StudentStore) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

func (h *StudentHandler) StudentForm(r *http.Request) Outcome {
	return Page("student_form")
}

// SubmitStudent stores the intake form. Failures re-render the form with
// what the user typed instead of redirecting.
func (h *StudentHandler) SubmitStudent(r *http.Request) Outcome {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		return formOutcome(r, http.StatusBadRequest, flash.New(flash.Danger, "Error: "+err.Error()))
	}

	form := service.StudentForm{
		Name:      r.PostForm.Get("name"),
		Class:     r.PostForm.Get("class"),
		Streams:   r.PostForm["stream"],
		Subjects:  r.PostForm["subjects"],
		Interests: r.PostForm.Get("interests"),
		Skills:    r.PostForm.Get("skills"),
	}

	student, err := h.studentService.Submit(ctx, form)
	var validationErr *service.ValidationError
	switch {
	case err == nil:
		middleware.Logger(ctx).WithField("student_id", student.ID).Info("student form submitted")
		return RedirectTo("/", flash.New(flash.Success, "Student information submitted successfully!"))
	case errors.As(err, &validationErr):
		return formOutcome(r, http.StatusBadRequest, flash.New(flash.Warning, capitalize(validationErr.Error())+"."))
	default:
		middleware.Logger(ctx).WithError(err).Error("student form submission failed")
		return formOutcome(r, http.StatusInternalServerError, flash.New(flash.Danger, "Error: "+err.Error()))
	}
}

func formOutcome(r *http.Request, status int, msg flash.Message) Outcome {
	o := Page("student_form", msg)
	o.Status = status
	o.View = render.View{
		Form: map[string]string{
			"name":      r.PostForm.Get("name"),
			"class":     r.PostForm.Get("class"),
			"interests": r.PostForm.Get("interests"),
			"skills":    r.PostForm.Get("skills"),
		},
		Selected: map[string]map[string]bool{
			"stream":   selectedSet(r.PostForm["stream"]),
			"subjects": selectedSet(r.PostForm["subjects"]),
		},
	}
	return o
}

// ListStudents returns a page of submitted forms as JSON. Requires a login.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	if middleware.CurrentUser(r.Context()) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	q := service.StudentQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Name:      query.Get("name"),
		Class:     query.Get("student_class"),
		Stream:    query.Get("stream"),
	}.Normalized()

	students, totalCount, totalPages, err := h.studentService.ListStudents(r.Context(), q)
	if err != nil {
		middleware.Logger(r.Context()).WithError(err).Error("listing students failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       students,
		"page":       q.Page,
		"limit":      q.Limit,
		"total":      totalCount,
		"totalPages": totalPages,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func selectedSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
