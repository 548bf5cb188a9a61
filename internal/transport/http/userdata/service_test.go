package userdata

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"chopchop-server-go/internal/domain/mail"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/storage"
	httptransport "chopchop-server-go/internal/transport/http"
)

type captureSender struct {
	to   string
	body string
}

func (c *captureSender) Send(to, subject, htmlBody string) error {
	c.to, c.body = to, htmlBody
	return nil
}

func newTestRouter(t *testing.T, withDigest bool) (*gin.Engine, *captureSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.New(logging.Config{Level: "error", Dir: t.TempDir(), Filename: "test.log"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	userData := storage.NewUserDataRepository(db)
	history := storage.NewChatHistoryRepository(db)
	recipes := storage.NewRecentRecipeRepository(db, 10)

	var digest *mail.DigestService
	sender := &captureSender{}
	if withDigest {
		digest = mail.NewDigestService(userData, recipes, sender, logger)
	}

	svc, err := NewService(userData, history, recipes, digest, logger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	engine := gin.New()
	group := engine.Group("/api")
	group.Use(func(c *gin.Context) {
		c.Set(httptransport.EmailKey, "cook@example.com")
	})
	if err := svc.Register(context.Background(), group); err != nil {
		t.Fatalf("register: %v", err)
	}
	return engine, sender
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env.Data
}

func TestSaveAndGetData(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodPost, "/api/save-data", gin.H{
		"items":   []string{"milk", "eggs"},
		"recipes": []gin.H{{"id": "r1", "title": "Omelette"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/get-data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	data := dataField(t, rec)

	var items []string
	if err := json.Unmarshal(data["items"], &items); err != nil {
		t.Fatalf("items not an array: %v", err)
	}
	if len(items) != 2 || items[0] != "milk" {
		t.Errorf("items = %v", items)
	}
	if !strings.Contains(string(data["recipes"]), "Omelette") {
		t.Errorf("recipes = %s", data["recipes"])
	}
}

func TestGetDataWithoutRecord(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodGet, "/api/get-data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataField(t, rec)

	var items []any
	if err := json.Unmarshal(data["items"], &items); err != nil {
		t.Fatalf("items not an array: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}
}

func TestUpdateDataKeepsOtherField(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodPost, "/api/save-data", gin.H{
		"items":   []string{"milk"},
		"recipes": []gin.H{{"title": "Toast"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/update-data", gin.H{
		"items": []string{"milk", "butter"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	data := dataField(t, doJSON(t, engine, http.MethodGet, "/api/get-data", nil))
	if !strings.Contains(string(data["items"]), "butter") {
		t.Errorf("items = %s", data["items"])
	}
	if !strings.Contains(string(data["recipes"]), "Toast") {
		t.Errorf("recipes lost on partial update: %s", data["recipes"])
	}
}

func TestRecentRecipesRoundTrip(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodPost, "/api/recent-recipes/add", gin.H{
		"recipe": gin.H{"id": "pasta-1", "title": "Weeknight Pasta"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d body = %s", rec.Code, rec.Body.String())
	}
	data := dataField(t, rec)
	if string(data["id"]) != `"pasta-1"` {
		t.Errorf("id = %s", data["id"])
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/recent-recipes/get", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	data = dataField(t, rec)
	if !strings.Contains(string(data["recipes"]), "Weeknight Pasta") {
		t.Errorf("recipes = %s", data["recipes"])
	}
}

func TestRecipeAddGeneratesID(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodPost, "/api/recent-recipes/add", gin.H{
		"recipe": gin.H{"title": "Untitled"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add status = %d", rec.Code)
	}
	data := dataField(t, rec)
	if len(data["id"]) <= 2 {
		t.Errorf("no id generated: %s", data["id"])
	}
}

func TestChatHistoryEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodGet, "/api/chat-history?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/chat-history?limit=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestSendEmailWithoutMail(t *testing.T) {
	engine, _ := newTestRouter(t, false)

	rec := doJSON(t, engine, http.MethodPost, "/api/send-email", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSendEmailDeliversDigest(t *testing.T) {
	engine, sender := newTestRouter(t, true)

	rec := doJSON(t, engine, http.MethodPost, "/api/save-data", gin.H{
		"items": []string{"milk"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/send-email", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d body = %s", rec.Code, rec.Body.String())
	}
	if sender.to != "cook@example.com" {
		t.Errorf("digest recipient = %s", sender.to)
	}
	if !strings.Contains(sender.body, "milk") {
		t.Error("digest body missing saved item")
	}
}
