package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tokyojung/internal/auth"
	"tokyojung/internal/events"
)

const (
	subscribeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	pingInterval     = 30 * time.Second
)

// subscribeFrame is the first client message on /events.
type subscribeFrame struct {
	Subscribe    string `json:"subscribe"`
	QueueNumber  int    `json:"queueNumber,omitempty"`
	BusinessDate string `json:"businessDate,omitempty"`
}

// handleEvents upgrades to a websocket and streams event envelopes for one
// topic. There is no replay buffer; clients re-query on reconnect.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.cfg.CORSOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.cfg.CORSOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(subscribeTimeout))
	var frame subscribeFrame
	if err := conn.ReadJSON(&frame); err != nil {
		return
	}

	topic, err := s.resolveTopic(r, frame)
	if err != nil {
		deadline := time.Now().Add(writeTimeout)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline)
		return
	}

	ch, cancel := s.hub.Subscribe(topic)
	defer cancel()

	// Reads only serve to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// resolveTopic maps the subscribe frame to a hub topic. The staff channel
// requires a staff bearer (Authorization header or ?token=); customer topics
// are public but scoped to a single queue number.
func (s *Server) resolveTopic(r *http.Request, frame subscribeFrame) (string, error) {
	switch frame.Subscribe {
	case "staff":
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		principal := s.auth.Principal(token)
		if err := auth.Authorize(principal, auth.Staff); err != nil {
			return "", err
		}
		return events.StaffTopic, nil

	case "customer":
		if frame.QueueNumber <= 0 {
			return "", errInvalidSubscription
		}
		businessDate := frame.BusinessDate
		if businessDate == "" {
			businessDate = s.orders.BusinessDate(time.Now())
		}
		return events.CustomerTopic(businessDate, frame.QueueNumber), nil
	}
	return "", errInvalidSubscription
}

var errInvalidSubscription = &subscriptionError{}

type subscriptionError struct{}

func (*subscriptionError) Error() string {
	return `subscribe must be "staff" or "customer" with a queueNumber`
}
