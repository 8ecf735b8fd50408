package handler

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"studentintake/internal/flash"
	"studentintake/internal/middleware"
	"studentintake/internal/render"
)

type Dependencies struct {
	Auth          Authenticator
	Sessions      SessionManager
	Students      StudentStore
	Renderer      *render.Renderer
	Flashes       *flash.Jar
	SessionCookie string
	Log           *logrus.Logger
}

func NewRouter(d Dependencies) *mux.Router {
	presenter := NewPresenter(d.Renderer, d.Flashes)
	pageHandler := NewPageHandler()
	authHandler := NewAuthHandler(d.Auth, d.Sessions, d.SessionCookie)
	studentHandler := NewStudentHandler(d.Students)

	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log), middleware.Session(d.SessionCookie, d.Sessions))

	r.HandleFunc("/", presenter.Handle(pageHandler.Home)).Methods("GET")
	r.HandleFunc("/about", presenter.Handle(pageHandler.About)).Methods("GET")

	r.HandleFunc("/signup", presenter.Handle(authHandler.SignupForm)).Methods("GET")
	r.HandleFunc("/signup", presenter.Handle(authHandler.Signup)).Methods("POST")
	r.HandleFunc("/login", presenter.Handle(authHandler.LoginForm)).Methods("GET")
	r.HandleFunc("/login", presenter.Handle(authHandler.Login)).Methods("POST")
	r.HandleFunc("/logout", presenter.Handle(authHandler.Logout)).Methods("POST")

	r.HandleFunc("/student_form", presenter.Handle(studentHandler.StudentForm)).Methods("GET")
	r.HandleFunc("/student_form", presenter.Handle(studentHandler.SubmitStudent)).Methods("POST")
	r.HandleFunc("/students", studentHandler.ListStudents).Methods("GET")

	return r
}
