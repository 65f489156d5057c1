package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	service := app.NewSessionService(
		memory.NewSessionStore(),
		memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute),
		memory.NewSubmissionStore(),
	)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the session handshake first, with the answer key stripped.
	msgType, payload := readNext(conn, t, "session")
	if msgType != "session" {
		t.Fatalf("expected session, got %s", msgType)
	}
	quiz, _ := payload["quiz"].(map[string]any)
	if quiz == nil || quiz["duration"] != "00:10:00" {
		t.Fatalf("expected quiz in handshake, got %v", payload)
	}
	questions, _ := quiz["questions"].([]any)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %v", quiz["questions"])
	}
	options := questions[0].(map[string]any)["options"].([]any)
	if _, leaked := options[0].(map[string]any)["correct"]; leaked {
		t.Fatal("answer key leaked to the client")
	}

	// Select the correct option, then submit.
	if err := conn.WriteJSON(map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionId": 1, "optionId": "1-1"},
	}); err != nil {
		t.Fatalf("write select: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	// Snapshots stream in; wait for the submitted one carrying the result.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("never saw a submitted snapshot")
		}
		typ, payload := readNext(conn, t, "")
		if typ != "snapshot" {
			continue
		}
		if payload["state"] != "submitted" {
			continue
		}
		result, _ := payload["result"].(map[string]any)
		if result == nil {
			t.Fatalf("submitted snapshot without result: %v", payload)
		}
		if result["score"] != float64(1) || result["percentage"] != float64(100) {
			t.Fatalf("unexpected result: %v", result)
		}
		break
	}

	// Retake resets the countdown and clears answers.
	if err := conn.WriteJSON(map[string]any{"type": "retake"}); err != nil {
		t.Fatalf("write retake: %v", err)
	}
	for {
		if time.Now().After(deadline) {
			t.Fatal("never saw an in-progress snapshot after retake")
		}
		typ, payload := readNext(conn, t, "")
		if typ != "snapshot" || payload["state"] != "in_progress" {
			continue
		}
		if payload["remainingClock"] != "00:10:00" {
			t.Fatalf("expected full countdown after retake, got %v", payload["remainingClock"])
		}
		break
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			CourseID: "course-1",
			Title:    "Basics",
			Duration: "00:10:00",
			Questions: []domain.Question{
				{
					ID:   1,
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "1-0", Text: "3", Correct: false},
						{ID: "1-1", Text: "4", Correct: true},
					},
				},
			},
		},
	}
}
