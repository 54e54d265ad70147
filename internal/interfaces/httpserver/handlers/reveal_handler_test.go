package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/handlers"
)

// MockRevealSource feeds a fixed frame sequence to the stream handler.
type MockRevealSource struct {
	frames   []string
	released bool
}

func (m *MockRevealSource) Watch(turnID string) (<-chan string, func()) {
	ch := make(chan string, len(m.frames))
	for _, frame := range m.frames {
		ch <- frame
	}
	close(ch)
	return ch, func() { m.released = true }
}

func (m *MockRevealSource) Revealing(turnID string) bool { return false }
func (m *MockRevealSource) Settled(turnID string) bool   { return true }

// closeNotifyRecorder adds the http.CloseNotifier method that gin's
// Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func TestRevealHandler_Stream(t *testing.T) {
	source := &MockRevealSource{frames: []string{"He", "Hell", "Hello"}}
	handler := handlers.NewRevealHandler(source, zerolog.Nop())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/conversations/:conversation_id/turns/:turn_id/reveal", handler.Stream)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv-1/turns/turn-1/reveal", nil)
	w := newCloseNotifyRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, frame := range source.frames {
		if !strings.Contains(body, frame) {
			t.Errorf("Expected frame %q in stream body", frame)
		}
	}
	if !strings.Contains(body, "event:done") && !strings.Contains(body, "event: done") {
		t.Errorf("Expected terminal done event, body: %q", body)
	}
	if !source.released {
		t.Error("Expected the watch to be released after streaming")
	}
}
