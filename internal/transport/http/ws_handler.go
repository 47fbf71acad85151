package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// WSHandler drives one quiz session per websocket connection.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.SessionService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// sessionCommand addresses a group and carries the arguments of every inbound message type.
type sessionCommand struct {
	Group    int    `json:"group"`
	Option   int    `json:"option"`
	Text     string `json:"text"`
	Question int    `json:"question"`
	Section  int    `json:"section"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type answerResult struct {
	Group  int                 `json:"group"`
	Result domain.AnswerResult `json:"result"`
}

type errorPayload struct {
	Code    domain.ErrCode `json:"code"`
	Message string         `json:"message"`
	Detail  string         `json:"detail,omitempty"`
}

func errorMessage(err error, lang domain.Language) outboundMessage[any] {
	code := domain.CodeOf(err)
	p := errorPayload{Code: code, Message: MessageFor(code, lang)}
	if e, ok := asDomainError(err); ok {
		p.Detail = e.Message
	}
	return outboundMessage[any]{Type: "error", Payload: p}
}

// ServeWS starts a session for examId/learnerId, or resumes sessionId, and applies inbound commands.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	examID, learnerID, sessionID := q.Get("examId"), q.Get("learnerId"), q.Get("sessionId")
	if sessionID == "" && (examID == "" || learnerID == "") {
		http.Error(w, "missing examId or learnerId", http.StatusBadRequest)
		return
	}
	lang := domain.LanguageArabic
	if q.Get("lang") == string(domain.LanguageEnglish) {
		lang = domain.LanguageEnglish
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var session *app.QuizSession
	if sessionID != "" {
		session, err = h.service.Get(ctx, sessionID)
	} else {
		session, err = h.service.Start(ctx, examID, learnerID)
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err, lang))
		return
	}
	sessionID = session.ID()

	out := newOutbox(conn.WriteJSON, func(err error) {
		h.log.Debug().Err(err).Str("session_id", sessionID).Msg("ws write failed")
		_ = conn.Close()
	})
	defer out.close()

	if !out.push(outboundMessage[any]{Type: "state", Payload: session.View()}) {
		return
	}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		var cmd sessionCommand
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &cmd); err != nil {
				if !out.push(errorMessage(domain.NewError(domain.CodeValidation, "invalid payload"), lang)) {
					return
				}
				continue
			}
		}
		replies, err := h.apply(ctx, sessionID, inbound.Type, cmd)
		if err != nil {
			replies = []outboundMessage[any]{errorMessage(err, lang)}
		}
		for _, msg := range replies {
			if !out.push(msg) {
				return
			}
		}
	}
}

// outbox serializes writes to one connection from a single goroutine.
// After a write fails, push reports false instead of blocking.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(write func(v interface{}) error, onError func(error)) *outbox {
	o := &outbox{send: make(chan outboundMessage[any], 16), done: make(chan struct{})}
	go func() {
		defer close(o.done)
		for msg := range o.send {
			if err := write(msg); err != nil {
				onError(err)
				return
			}
		}
	}()
	return o
}

func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

// close flushes queued messages and waits for the writer to stop.
func (o *outbox) close() {
	close(o.send)
	<-o.done
}

// apply runs one command and returns the replies for it.
func (h *WSHandler) apply(ctx context.Context, sessionID, kind string, cmd sessionCommand) ([]outboundMessage[any], error) {
	var (
		session *app.QuizSession
		err     error
	)
	switch kind {
	case "select":
		session, err = h.service.SelectAnswer(ctx, sessionID, cmd.Group, cmd.Option)
	case "selectText":
		session, err = h.service.SelectText(ctx, sessionID, cmd.Group, cmd.Text)
	case "submit":
		var res domain.AnswerResult
		session, res, err = h.service.Submit(ctx, sessionID, cmd.Group)
		if err == nil {
			return []outboundMessage[any]{
				{Type: "answerResult", Payload: answerResult{Group: cmd.Group, Result: res}},
				{Type: "state", Payload: session.View()},
			}, nil
		}
	case "next":
		session, err = h.service.Next(ctx, sessionID, cmd.Group)
	case "jump":
		session, err = h.service.JumpTo(ctx, sessionID, cmd.Group, cmd.Question)
	case "switchSection":
		session, err = h.service.SwitchSection(ctx, sessionID, cmd.Group, cmd.Section)
	case "restart":
		session, err = h.service.Restart(ctx, sessionID, cmd.Group)
	case "finish":
		var out app.CalculateScoreOutput
		if out, err = h.service.Finish(ctx, sessionID); err == nil {
			return []outboundMessage[any]{{Type: "score", Payload: scoreResponse{
				CalculateScoreOutput: out, Summary: out.Summary(), Message: out.Message(),
			}}}, nil
		}
	default:
		err = domain.NewError(domain.CodeValidation, "unsupported message type: "+kind)
	}
	if err != nil {
		return nil, err
	}
	return []outboundMessage[any]{{Type: "state", Payload: session.View()}}, nil
}
