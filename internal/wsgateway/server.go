// Package wsgateway is the bidirectional client transport: WebSocket
// upgrade, bearer-token handshake against the directory, inbound event
// dispatch into the table sessions, and outbound personalized fan-out.
package wsgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/directory"
	"holdem-server/internal/hand"
	"holdem-server/internal/registry"
	"holdem-server/internal/tablesession"
)

const sendBuffer = 32

type Client struct {
	conn        *websocket.Conn
	send        chan []byte
	socketID    string
	userID      string
	displayName string
}

// Server owns the socket set. It implements tablesession.Notifier, so
// every table broadcast routes through the registry to the one live
// socket per user.
type Server struct {
	upgrader websocket.Upgrader
	registry *registry.ConnectionRegistry
	manager  *tablesession.Manager
	dir      directory.Client

	mu      sync.Mutex
	clients map[string]*Client // socketID -> client
}

func NewServer(reg *registry.ConnectionRegistry, dir directory.Client) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		registry: reg,
		dir:      dir,
		clients:  map[string]*Client{},
	}
}

// SetManager wires the table manager after construction; the manager
// needs the server as its Notifier first.
func (s *Server) SetManager(m *tablesession.Manager) { s.manager = m }

// Send implements tablesession.Notifier. It never blocks: a client
// whose buffer is full loses the frame (the next snapshot supersedes
// it).
func (s *Server) Send(userID, event string, payload any) {
	socketID, ok := s.registry.SocketFor(userID)
	if !ok {
		return
	}
	s.mu.Lock()
	c := s.clients[socketID]
	s.mu.Unlock()
	if c == nil {
		return
	}
	msg := encodeEnvelope(event, payload)
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("user_id", userID).Str("event", event).Msg("send buffer full, frame dropped")
	}
}

// HandleWS upgrades the connection and runs the auth handshake: the
// bearer token (Authorization header or ?token=) must verify with the
// directory before any event is accepted.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	identity, err := s.dir.VerifyToken(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("ws handshake refused")
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		socketID:    registry.NewID(),
		userID:      identity.UserID,
		displayName: identity.Username,
	}
	s.register(c)

	go s.writeLoop(c)
	s.readLoop(c)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return auth[len(prefix):]
	}
	return r.URL.Query().Get("token")
}

func (s *Server) register(c *Client) {
	displaced := s.registry.Bind(c.userID, c.socketID)
	s.mu.Lock()
	if displaced != "" {
		if old := s.clients[displaced]; old != nil {
			delete(s.clients, displaced)
			safeClose(old.send)
			_ = old.conn.Close()
		}
	}
	s.clients[c.socketID] = c
	s.mu.Unlock()

	safeSend(c.send, encodeEnvelope(tablesession.EvtConnected, ConnectedPayload{
		SocketID: c.socketID,
		Message:  "welcome, " + c.displayName,
	}))
	log.Info().Str("user_id", c.userID).Str("socket_id", c.socketID).Msg("client connected")

	// A user seated anywhere becomes connected (or reconnected) there.
	s.manager.HandleConnect(c.userID, c.socketID)
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.socketID)
	s.mu.Unlock()
	safeClose(c.send)
	_ = c.conn.Close()

	// Only the live binding reports a disconnect; a socket displaced by
	// a reconnect must not re-trigger the grace window.
	if s.registry.Unbind(c.userID, c.socketID) {
		log.Info().Str("user_id", c.userID).Str("socket_id", c.socketID).Msg("client disconnected")
		s.manager.HandleDisconnect(c.userID, c.socketID)
	}
}

func (s *Server) readLoop(c *Client) {
	defer s.unregister(c)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case MsgJoinTable:
			s.manager.HandleConnect(c.userID, c.socketID)
		case MsgAction:
			var action ActionMessage
			if err := json.Unmarshal(msg, &action); err != nil {
				continue
			}
			s.handleAction(c, action)
		case MsgChat:
			var chat ChatInMessage
			if err := json.Unmarshal(msg, &chat); err != nil {
				continue
			}
			s.handleChat(c, chat)
		case MsgLeaveTable:
			if sess, ok := s.manager.FindByUser(c.userID); ok {
				if err := sess.Leave(c.userID); err != nil {
					safeSend(c.send, encodeEnvelope(tablesession.EvtError, ErrorPayload{Reason: apperrors.ReasonOf(err)}))
				}
			}
		}
	}
}

func (s *Server) handleAction(c *Client, action ActionMessage) {
	sess, ok := s.manager.FindByUser(c.userID)
	if !ok {
		safeSend(c.send, encodeEnvelope(tablesession.EvtActionError, ErrorPayload{Reason: "not seated at any table"}))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sess.SubmitAction(ctx, c.userID, hand.ActionType(action.Action), action.Amount); err != nil {
		safeSend(c.send, encodeEnvelope(tablesession.EvtActionError, ErrorPayload{Reason: apperrors.ReasonOf(err)}))
	}
}

func (s *Server) handleChat(c *Client, chat ChatInMessage) {
	var sess *tablesession.Session
	var ok bool
	if chat.TableID != "" {
		sess, ok = s.manager.Get(chat.TableID)
	} else {
		sess, ok = s.manager.FindByUser(c.userID)
	}
	if !ok || strings.TrimSpace(chat.Text) == "" {
		return
	}
	sess.SubmitChat(c.userID, chat.Text)
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func safeClose(ch chan []byte) {
	defer func() { _ = recover() }()
	close(ch)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() { _ = recover() }()
	if msg == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
