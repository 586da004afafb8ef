//go:build integration

package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"quizblog/config"
	"quizblog/models"

	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer runs req and returns host:port of its single exposed port.
func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate %s: %v", req.Image, err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("%s endpoint: %v", req.Image, err)
	}
	return endpoint
}

func TestPostgresRedisEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgAddr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "quizblog",
			"POSTGRES_PASSWORD": "quizblog",
			"POSTGRES_DB":       "quizblog",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	})

	redisAddr := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})

	host, port, _ := net.SplitHostPort(pgAddr)
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("JWT_SECRET", "integration-secret-0123456789")
	t.Setenv("DATABASE_URL", fmt.Sprintf("host=%s port=%s user=quizblog password=quizblog dbname=quizblog sslmode=disable", host, port))
	t.Setenv("REDIS_ADDR", redisAddr)
	t.Setenv("NOTES_DIR", t.TempDir())
	t.Setenv("SMTP_HOST", "127.0.0.1")
	t.Setenv("SMTP_PORT", "1")
	t.Setenv("RATE_LIMIT", "0")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	})

	s := &testServer{handler: a.Handler(), db: a.DB, tokens: a.Tokens, hub: a.Hub}

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register = %d %s", rec.Code, rec.Body)
	}
	var session struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &session)

	if err := a.DB.Model(&models.User{}).Where("id = ?", session.User.ID).Update("role", "Admin").Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "grace@example.com", "password": "hopper",
	})
	decode(t, rec, &session)
	admin := session.Token

	rec = s.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"title": "History", "description": "d"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category = %d %s", rec.Code, rec.Body)
	}
	var category models.Category
	decode(t, rec, &category)

	rec = s.do(t, http.MethodPost, "/api/quizes", admin, map[string]string{"title": "Rome", "description": "d", "category": category.ID})
	var quiz models.Quiz
	decode(t, rec, &quiz)

	question := map[string]interface{}{
		"questionText": "Who crossed the Rubicon?",
		"answerOptions": []map[string]interface{}{
			{"answerText": "Caesar", "isCorrect": true},
			{"answerText": "Cicero", "isCorrect": false},
		},
		"quiz": quiz.ID,
	}
	rec = s.do(t, http.MethodPost, "/api/questions", admin, question)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create question = %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodDelete, "/api/categories/"+category.ID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete category = %d %s", rec.Code, rec.Body)
	}

	var left int64
	a.DB.Model(&models.Question{}).Where("quiz = ?", quiz.ID).Count(&left)
	if left != 0 {
		t.Errorf("%d questions survived the category delete", left)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "grace@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot password = %d %s", rec.Code, rec.Body)
	}
	n, err := a.Redis.Exists(ctx, "pswd_reset:"+session.User.ID).Result()
	if err != nil || n != 1 {
		t.Errorf("reset token stored = %d, %v", n, err)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(s.do(t, http.MethodGet, "/api/auth/user", admin, nil).Body.Bytes(), &raw)
	if _, ok := raw["password"]; ok {
		t.Error("password exposed")
	}
}
