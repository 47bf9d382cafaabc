package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"examprep-quiz/internal/app"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	cookies  sessions.Store
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, cookies sessions.Store) *WSHandler {
	return &WSHandler{
		service: service,
		cookies: cookies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type selectPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
// Every change to the session, including timer ticks, is pushed as a "state" message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID, err := resolveSessionID(h.cookies, w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// the cookie set above has to travel with the handshake response
	var header http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header = http.Header{"Set-Cookie": cookies}
	}
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if _, err := h.service.Open(ctx, sessionID); err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer h.service.Close(ctx, sessionID)

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := h.handle(ctx, sessionID, inbound)
		if err != nil {
			msg := errorMessage(err.Error())
			reply = &msg
		}
		if reply == nil {
			continue
		}
		select {
		case send <- *reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle applies one client message. State changes reach the client through
// the subscription; only queries produce a direct reply.
func (h *WSHandler) handle(ctx context.Context, sessionID string, in inboundMessage) (*outboundMessage[any], error) {
	switch in.Type {
	case "start":
		return nil, h.service.Start(ctx, sessionID)
	case "restart":
		return nil, h.service.Restart(ctx, sessionID)
	case "submit":
		return nil, h.service.Submit(ctx, sessionID)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return nil, errInvalidPayload("answer")
		}
		return nil, h.service.RecordAnswer(ctx, sessionID, payload.QuestionID, payload.Value)
	case "nextSection", "prevSection", "nextQuestion", "prevQuestion":
		return nil, h.service.Navigate(ctx, sessionID, app.Move(in.Type))
	case "selectQuestion":
		var payload selectPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return nil, errInvalidPayload("selectQuestion")
		}
		return nil, h.service.SelectQuestion(ctx, sessionID, payload.Index)
	case "results":
		results, err := h.service.Results(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: "results", Payload: results}, nil
	case "export":
		doc, err := h.service.Export(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &outboundMessage[any]{Type: "export", Payload: doc}, nil
	default:
		return nil, errUnsupported
	}
}
