package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestService(size int) (*Service, *queue.Queue) {
	q := queue.New(size, func(ctx context.Context, req *report.Request) error { return nil })
	return New(q), q
}

func do(s *Service, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestService(4)

	w := do(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
	assert.Equal(t, float64(0), body["queue"])
}

func TestHealthIndependentOfQueueState(t *testing.T) {
	s, q := newTestService(1)
	assert.Nil(t, q.Enqueue(mustRequest()))
	// queue now full, health still answers
	w := do(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func mustRequest() *report.Request {
	req := report.NewRequest(report.KindDaily, report.TriggerManual)
	req.Date = "02.05.2025"
	return req
}

func TestTrigger(t *testing.T) {
	s, q := newTestService(4)

	w := do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily", Date: "02.05.2025"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]interface{}
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, "daily", body["kind"])
	assert.Equal(t, 1, q.Depth())
}

func TestTriggerDefaults(t *testing.T) {
	s, q := newTestService(4)

	// daily defaults to today, monthly to the current month
	w := do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "monthly"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 2, q.Depth())
}

func TestTriggerValidation(t *testing.T) {
	s, q := newTestService(4)

	w := do(s, http.MethodPost, "/trigger", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "monthly-user", Month: "2025-05"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, q.Depth())
}

func TestTriggerBusy(t *testing.T) {
	s, q := newTestService(2)

	for i := 0; i < 2; i++ {
		w := do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily", Date: "02.05.2025"})
		assert.Equal(t, http.StatusAccepted, w.Code)
	}

	// at the bound: busy response, depth unchanged
	w := do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily", Date: "02.05.2025"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, q.Depth())

	w = do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily", Date: "02.05.2025"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, q.Depth())
}

func TestCancel(t *testing.T) {
	s, _ := newTestService(4)

	w := do(s, http.MethodPost, "/trigger", TriggerPayload{Kind: "daily", Date: "02.05.2025"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]string
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))

	w = do(s, http.MethodDelete, "/requests/"+body["request_id"], nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestWebhookOption(t *testing.T) {
	q := queue.New(4, func(ctx context.Context, req *report.Request) error { return nil })
	called := false
	s := New(q, WithWebhook("/webhook/token", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})))

	w := do(s, http.MethodPost, "/webhook/token", map[string]interface{}{"update_id": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}
