package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studentintake/internal/database"
	"studentintake/internal/flash"
	"studentintake/internal/handler"
	"studentintake/internal/model"
	"studentintake/internal/render"
	"studentintake/internal/service"
)

type testApp struct {
	db     *gorm.DB
	server *httptest.Server
	client *http.Client
	logs   *test.Hook
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)

	renderer, err := render.New()
	require.NoError(t, err)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := handler.NewRouter(handler.Dependencies{
		Auth:          service.NewAuthService(db, bcrypt.MinCost),
		Sessions:      service.NewSessionService(db, time.Hour),
		Students:      service.NewStudentService(db),
		Renderer:      renderer,
		Flashes:       flash.NewJar([]byte("test-flash-key")),
		SessionCookie: "session_id",
		Log:           log,
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{db: db, server: server, client: client, logs: hook}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (a *testApp) signupAndLogin(t *testing.T, email, password string) {
	t.Helper()
	creds := url.Values{"email": {email}, "password": {password}}
	resp, _ := a.post(t, "/signup", creds)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = a.post(t, "/login", creds)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestStaticPages(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", "Welcome to the Student Portal"},
		{"/about", "<h1>About</h1>"},
		{"/signup", `action="/signup"`},
		{"/login", `action="/login"`},
		{"/student_form", `name="subjects"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := app.get(t, tt.path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.want)
			assert.NotContains(t, body, "alert-")
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := setupTestApp(t)
	creds := url.Values{"email": {"a@x.com"}, "password": {"pw1"}}

	resp, _ := app.post(t, "/signup", creds)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := app.get(t, "/login")
	assert.Contains(t, body, "Account created successfully!")

	resp, _ = app.post(t, "/signup", creds)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	_, body = app.get(t, "/signup")
	assert.Contains(t, body, "Email already exists. Please log in or choose a different email.")
	assert.Contains(t, body, "alert-danger")

	var count int64
	require.NoError(t, app.db.Model(&model.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSignupValidation(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := app.post(t, "/signup", url.Values{"email": {"a@x.com"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	_, body := app.get(t, "/signup")
	assert.Contains(t, body, "Password is required.")
}

func TestFlashIsShownOnce(t *testing.T) {
	app := setupTestApp(t)

	app.post(t, "/signup", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})

	_, body := app.get(t, "/login")
	assert.Contains(t, body, "Account created successfully!")

	_, body = app.get(t, "/login")
	assert.NotContains(t, body, "Account created successfully!")
}

func TestLogin(t *testing.T) {
	app := setupTestApp(t)
	app.post(t, "/signup", url.Values{"email": {"a@x.com"}, "password": {"pw1"}})
	app.get(t, "/login")

	tests := []struct {
		name     string
		email    string
		password string
		location string
		message  string
	}{
		{"unknown email", "nobody@x.com", "pw1", "/login", "No account found with that email. Please sign up first."},
		{"bad password", "a@x.com", "wrong", "/login", "Invalid password. Please try again."},
		{"success", "a@x.com", "pw1", "/", "Logged in successfully!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := app.post(t, "/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))

			_, body := app.get(t, tt.location)
			assert.Contains(t, body, tt.message)
		})
	}

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Signed in as a@x.com.")

	var sessions int64
	require.NoError(t, app.db.Model(&model.Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(1), sessions)
}

func TestLogout(t *testing.T) {
	app := setupTestApp(t)
	app.signupAndLogin(t, "a@x.com", "pw1")

	resp, _ := app.post(t, "/logout", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, "/")
	assert.Contains(t, body, "You have been logged out.")
	assert.NotContains(t, body, "Signed in as")

	var sessions int64
	require.NoError(t, app.db.Model(&model.Session{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
}

func TestSubmitStudentForm(t *testing.T) {
	app := setupTestApp(t)

	form := url.Values{
		"name":      {"Asha"},
		"class":     {"12"},
		"stream":    {"A", "B"},
		"subjects":  {"Math", "Physics"},
		"interests": {"chess"},
		"skills":    {""},
	}
	resp, _ := app.post(t, "/student_form", form)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Student information submitted successfully!")

	var student model.Student
	require.NoError(t, app.db.First(&student).Error)
	assert.Equal(t, "Asha", student.Name)
	assert.Equal(t, "12", student.StudentClass)
	assert.Equal(t, "A, B", student.Stream)
	assert.Equal(t, "Math, Physics", student.Subjects)
	assert.Equal(t, "chess", student.Interests)
	assert.Empty(t, student.Skills)
}

func TestSubmitStudentFormValidation(t *testing.T) {
	app := setupTestApp(t)

	form := url.Values{
		"name":     {"Asha"},
		"class":    {"12"},
		"subjects": {"Math"},
	}
	resp, body := app.post(t, "/student_form", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Stream needs at least one selection.")
	assert.Contains(t, body, `value="Asha"`)
	assert.Contains(t, body, `<option value="Math" selected>`)

	var count int64
	require.NoError(t, app.db.Model(&model.Student{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListStudents(t *testing.T) {
	app := setupTestApp(t)

	students := []model.Student{
		{Name: "John Doe", StudentClass: "11", Stream: "Science", Subjects: "Math"},
		{Name: "Jane Doe", StudentClass: "12", Stream: "Commerce", Subjects: "Economics"},
		{Name: "Alice", StudentClass: "11", Stream: "Science, Arts", Subjects: "Math, History"},
	}
	for i := range students {
		require.NoError(t, app.db.Create(&students[i]).Error)
	}

	resp, _ := app.get(t, "/students")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	app.signupAndLogin(t, "a@x.com", "pw1")

	tests := []struct {
		name        string
		queryParams map[string]string
		expectedLen int
		total       float64
	}{
		{"All students", map[string]string{}, 3, 3},
		{"Filter by name", map[string]string{"name": "john"}, 1, 1},
		{"Filter by class", map[string]string{"student_class": "11"}, 2, 2},
		{"Filter by stream", map[string]string{"stream": "Science"}, 2, 2},
		{"Pagination", map[string]string{"page": "2", "limit": "2"}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := url.Values{}
			for key, value := range tt.queryParams {
				q.Set(key, value)
			}
			resp, body := app.get(t, "/students?"+q.Encode())
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(strings.NewReader(body)).Decode(&response))

			data := response["data"].([]interface{})
			assert.Len(t, data, tt.expectedLen)
			assert.Equal(t, tt.total, response["total"])
		})
	}
}

func TestSignupLogsUserIDNotEmail(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := app.post(t, "/signup", url.Values{"email": {"a@x.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var user model.User
	require.NoError(t, app.db.Where("email = ?", "a@x.com").First(&user).Error)

	var created *logrus.Entry
	for _, entry := range app.logs.AllEntries() {
		_, hasEmail := entry.Data["email"]
		assert.False(t, hasEmail)
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "a@x.com")
		if entry.Message == "account created" {
			created = entry
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, user.ID, created.Data["user_id"])
}
