package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"quizblog/auth"
	"quizblog/config"
	"quizblog/mail"
	"quizblog/middleware"
	"quizblog/models"
	"quizblog/services"
	"quizblog/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "router-test-secret-0123456789"

type nopNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *nopNotifier) Send(to, subject, templateName string, data mail.Data) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

type testServer struct {
	handler  http.Handler
	db       *gorm.DB
	tokens   *auth.TokenCodec
	hub      *services.Hub
	notesDir string
}

func newTestServer(t *testing.T, legacyRoleGate bool) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	tokens, err := auth.NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("token codec: %v", err)
	}

	dir := t.TempDir()
	files, err := storage.NewDiskStore(dir, notesURLPrefix)
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment: "test",
			ClientURL:   "http://localhost:3000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{JWTSecret: testSecret, LegacyRoleGate: legacyRoleGate},
	}

	hub := services.NewHub()
	handler, err := NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Notifier: &nopNotifier{},
		Files:    files,
		Hub:      hub,
		Tokens:   tokens,
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return &testServer{handler: handler, db: db, tokens: tokens, hub: hub, notesDir: dir}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// userWithRole stores a user directly and returns a token for it.
func (s *testServer) userWithRole(t *testing.T, email string, role auth.Role) (string, string) {
	t.Helper()
	hash, err := auth.HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Name: "User " + string(role), Email: email, Password: hash, Role: role}
	if err := s.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return user.ID, token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorBody
	decode(t, rec, &body)
	return body.Code
}

func TestRegisterLoginCurrentUser(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "Ada@Example.com", "password": "lovelace",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "lovelace",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body)
	}
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"_id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, rec, &login)

	claims, err := s.tokens.Verify(login.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != login.User.ID || claims.Role != auth.RoleVisitor {
		t.Errorf("claims = %+v, want id %s role Visitor", claims, login.User.ID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != auth.TokenTTL {
		t.Errorf("exp - iat = %v, want %v", got, auth.TokenTTL)
	}

	rec = s.do(t, http.MethodGet, "/api/auth/user", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user status = %d, body = %s", rec.Code, rec.Body)
	}
	var user map[string]interface{}
	decode(t, rec, &user)
	if _, ok := user["password"]; ok {
		t.Error("current user response exposes the password")
	}
	if user["email"] != "ada@example.com" {
		t.Errorf("email = %v", user["email"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t, false)
	s.userWithRole(t, "bob@example.com", auth.RoleVisitor)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "bob@example.com", "password": "nope",
	})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_CREDENTIALS" {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Eve", "email": "not-an-email", "password": "pw12",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body middleware.ErrorBody
	decode(t, rec, &body)
	if body.Code != "VALIDATION_ERROR" || !strings.Contains(body.Msg, "email must be a valid e-mail") {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthGates(t *testing.T) {
	s := newTestServer(t, false)
	_, visitor := s.userWithRole(t, "v@example.com", auth.RoleVisitor)
	_, creator := s.userWithRole(t, "c@example.com", auth.RoleCreator)
	_, admin := s.userWithRole(t, "a@example.com", auth.RoleAdmin)

	expired, _ := auth.NewTokenCodec(testSecret, auth.WithTTL(-auth.TokenTTL))
	expiredToken, _, _ := expired.Issue(auth.Identity{UserID: "someone", Role: auth.RoleAdmin})

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"missing token", http.MethodGet, "/api/auth/user", "", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"garbage token", http.MethodGet, "/api/auth/user", "abc.def.ghi", nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired token", http.MethodGet, "/api/auth/user", expiredToken, nil, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"visitor lists users", http.MethodGet, "/api/users", visitor, nil, http.StatusForbidden, "FORBIDDEN"},
		{"creator lists users", http.MethodGet, "/api/users", creator, nil, http.StatusForbidden, "FORBIDDEN"},
		{"admin lists users", http.MethodGet, "/api/users", admin, nil, http.StatusOK, ""},
		{"visitor creates quiz", http.MethodPost, "/api/quizes", visitor,
			map[string]string{"title": "Q", "description": "d", "category": "x"}, http.StatusForbidden, "FORBIDDEN"},
		{"public quiz list", http.MethodGet, "/api/quizes", "", nil, http.StatusOK, ""},
		{"public contact form", http.MethodPost, "/api/contacts", "",
			map[string]string{"contact_name": "Ann", "email": "ann@example.com", "message": "hi"}, http.StatusCreated, ""},
		{"visitor lists contacts", http.MethodGet, "/api/contacts", visitor, nil, http.StatusForbidden, "FORBIDDEN"},
		{"creator lists contacts", http.MethodGet, "/api/contacts", creator, nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantErr != "" {
				if got := errorCode(t, rec); got != tt.wantErr {
					t.Errorf("code = %q, want %q", got, tt.wantErr)
				}
			}
		})
	}
}

func TestLegacyRoleGateAdmitsAnyUser(t *testing.T) {
	s := newTestServer(t, true)
	_, visitor := s.userWithRole(t, "v@example.com", auth.RoleVisitor)

	rec := s.do(t, http.MethodGet, "/api/users", visitor, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with the legacy gate", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestCategoryQuizLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	_, admin := s.userWithRole(t, "a@example.com", auth.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"title": "Science", "description": "All of it"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body = %s", rec.Code, rec.Body)
	}
	var category models.Category
	decode(t, rec, &category)

	rec = s.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"title": "Science", "description": "again"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "CONFLICT" {
		t.Fatalf("duplicate category status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/quizes", admin, map[string]string{
		"title": "Physics", "description": "Forces", "category": category.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz status = %d, body = %s", rec.Code, rec.Body)
	}
	var quiz models.Quiz
	decode(t, rec, &quiz)

	rec = s.do(t, http.MethodGet, "/api/quizes/category/"+category.ID, "", nil)
	var listed []struct {
		ID       string          `json:"_id"`
		Category models.Category `json:"category"`
	}
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != quiz.ID || listed[0].Category.Title != "Science" {
		t.Fatalf("quizzes in category = %+v", listed)
	}

	rec = s.do(t, http.MethodDelete, "/api/quizes/"+quiz.ID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete quiz status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/categories/"+category.ID, admin, nil)
	var got struct {
		Quizes []models.Quiz `json:"quizes"`
	}
	decode(t, rec, &got)
	if len(got.Quizes) != 0 {
		t.Errorf("category still references %v", got.Quizes)
	}

	rec = s.do(t, http.MethodGet, "/api/quizes/"+quiz.ID, "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "NOT_FOUND" {
		t.Errorf("deleted quiz status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestReadsExpandReferences(t *testing.T) {
	s := newTestServer(t, false)
	adminID, admin := s.userWithRole(t, "a@example.com", auth.RoleAdmin)
	visitorID, visitor := s.userWithRole(t, "v@example.com", auth.RoleVisitor)

	rec := s.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"title": "Geography", "description": "d"})
	var category models.Category
	decode(t, rec, &category)
	rec = s.do(t, http.MethodPost, "/api/quizes", admin, map[string]string{"title": "Rivers", "description": "d", "category": category.ID})
	var quiz models.Quiz
	decode(t, rec, &quiz)
	var questionIDs []string
	for _, text := range []string{"Longest river?", "Widest river?"} {
		rec = s.do(t, http.MethodPost, "/api/questions", admin, map[string]interface{}{
			"questionText":  text,
			"quiz":          quiz.ID,
			"answerOptions": []map[string]interface{}{{"answerText": "Nile", "isCorrect": true}, {"answerText": "Seine"}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create question status = %d, body = %s", rec.Code, rec.Body)
		}
		var q models.Question
		decode(t, rec, &q)
		questionIDs = append(questionIDs, q.ID)
	}

	rec = s.do(t, http.MethodGet, "/api/categories", "", nil)
	var categories []struct {
		ID     string        `json:"_id"`
		Quizes []models.Quiz `json:"quizes"`
	}
	decode(t, rec, &categories)
	if len(categories) != 1 || len(categories[0].Quizes) != 1 || categories[0].Quizes[0].Title != "Rivers" {
		t.Fatalf("categories = %s", rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/quizes/"+quiz.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous quiz status = %d, body = %s", rec.Code, rec.Body)
	}
	var taking struct {
		Title     string            `json:"title"`
		Category  models.Category   `json:"category"`
		Questions []models.Question `json:"questions"`
		CreatedBy struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		} `json:"created_by"`
	}
	decode(t, rec, &taking)
	if taking.Category.ID != category.ID || taking.Category.Title != "Geography" {
		t.Errorf("quiz category = %+v", taking.Category)
	}
	if len(taking.Questions) != 2 || taking.Questions[0].ID != questionIDs[0] || taking.Questions[1].ID != questionIDs[1] {
		t.Fatalf("quiz questions = %+v", taking.Questions)
	}
	if len(taking.Questions[0].AnswerOptions) != 2 {
		t.Errorf("answer options = %+v", taking.Questions[0].AnswerOptions)
	}
	if taking.CreatedBy.ID != adminID {
		t.Errorf("created_by = %+v", taking.CreatedBy)
	}
	if strings.Contains(rec.Body.String(), "a@example.com") {
		t.Errorf("author e-mail leaked: %s", rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/questions/quiz/"+quiz.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous questions of quiz status = %d, body = %s", rec.Code, rec.Body)
	}
	var byQuiz []struct {
		Quiz     models.Quiz     `json:"quiz"`
		Category models.Category `json:"category"`
	}
	decode(t, rec, &byQuiz)
	if len(byQuiz) != 2 || byQuiz[0].Quiz.Title != "Rivers" || byQuiz[0].Category.ID != category.ID {
		t.Errorf("questions of quiz = %s", rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/scores", visitor, map[string]interface{}{
		"id": "attempt-1", "marks": 1, "out_of": 2, "category": category.ID, "quiz": quiz.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create score status = %d, body = %s", rec.Code, rec.Body)
	}
	rec = s.do(t, http.MethodGet, "/api/scores/taken-by/"+visitorID, visitor, nil)
	var scores []struct {
		Marks    int             `json:"marks"`
		Quiz     models.Quiz     `json:"quiz"`
		Category models.Category `json:"category"`
		TakenBy  struct {
			ID string `json:"_id"`
		} `json:"taken_by"`
	}
	decode(t, rec, &scores)
	if len(scores) != 1 || scores[0].Quiz.ID != quiz.ID || scores[0].Category.Title != "Geography" || scores[0].TakenBy.ID != visitorID {
		t.Errorf("scores = %s", rec.Body)
	}
}

func TestQuizPaginationParams(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/quizes?limit=-1", "", nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func uploadNotes(t *testing.T, s *testServer, token string, fields map[string]string, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="notes_file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/notes", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(middleware.TokenHeader, token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestNotesUploadAndServe(t *testing.T) {
	s := newTestServer(t, false)
	_, admin := s.userWithRole(t, "a@example.com", auth.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/courseCategories", admin, map[string]string{"title": "Maths", "description": "d"})
	var cc models.CourseCategory
	decode(t, rec, &cc)
	rec = s.do(t, http.MethodPost, "/api/courses", admin, map[string]string{"title": "Algebra", "description": "d", "courseCategory": cc.ID})
	var course models.Course
	decode(t, rec, &course)
	rec = s.do(t, http.MethodPost, "/api/chapters", admin, map[string]string{"title": "Groups", "description": "d", "course": course.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create chapter status = %d, body = %s", rec.Code, rec.Body)
	}
	var chapter models.Chapter
	decode(t, rec, &chapter)

	fields := map[string]string{"title": "Group notes", "description": "intro", "chapter": chapter.ID}

	rec = uploadNotes(t, s, admin, fields, "groups.exe", "application/octet-stream", []byte("MZ"))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("bad type status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = uploadNotes(t, s, admin, map[string]string{"title": "No chapter", "description": "d"}, "a.pdf", "application/pdf", []byte("%PDF"))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("missing field status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = uploadNotes(t, s, admin, fields, "groups.pdf", "application/pdf", []byte("%PDF-1.4 notes"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body)
	}
	var notes models.Notes
	decode(t, rec, &notes)
	if notes.Course != course.ID || notes.CourseCategory != cc.ID {
		t.Errorf("notes ancestry = %s/%s, want %s/%s", notes.Course, notes.CourseCategory, course.ID, cc.ID)
	}

	key := storage.KeyFromLocation(notes.NotesFile)
	if !strings.HasSuffix(key, "-GROUPS-[Shared by QuizBlog].PDF") {
		t.Errorf("object key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(s.notesDir, key)); err != nil {
		t.Fatalf("stored file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, notes.NotesFile, nil)
	served := httptest.NewRecorder()
	s.handler.ServeHTTP(served, req)
	if served.Code != http.StatusOK || served.Body.String() != "%PDF-1.4 notes" {
		t.Errorf("GET %s = %d %q", notes.NotesFile, served.Code, served.Body)
	}

	rec = s.do(t, http.MethodDelete, "/api/courses/"+course.ID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete course status = %d, body = %s", rec.Code, rec.Body)
	}
	if _, err := os.Stat(filepath.Join(s.notesDir, key)); !os.IsNotExist(err) {
		t.Errorf("notes file survived the course delete: %v", err)
	}
	rec = s.do(t, http.MethodGet, "/api/notes/"+notes.ID, admin, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("notes status after cascade = %d", rec.Code)
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "NOT_FOUND" {
		t.Errorf("unknown route status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/quizes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.TokenHeader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestNotificationFeed(t *testing.T) {
	s := newTestServer(t, false)
	_, creator := s.userWithRole(t, "c@example.com", auth.RoleCreator)
	_, visitor := s.userWithRole(t, "v@example.com", auth.RoleVisitor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Serve(ctx)

	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token="

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+visitor, nil)
	if err == nil {
		t.Fatal("visitor connected to the staff feed")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("visitor handshake response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+creator, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := s.do(t, http.MethodPost, "/api/contacts", "", map[string]string{
		"contact_name": "Ann", "email": "ann@example.com", "message": "Hello there",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contact status = %d, body = %s", rec.Code, rec.Body)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg services.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != services.EventContactCreated {
		t.Errorf("event type = %q, want %q", msg.Type, services.EventContactCreated)
	}
}
