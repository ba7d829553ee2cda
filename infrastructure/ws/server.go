// Package ws is the transport surface of the messaging core: one websocket
// endpoint for persistent connections and a thin REST API for groups,
// history, and attachment sends. Routing, upgrades, and frame encoding stop
// here; everything else is delegated to the services.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/process"

	"social-chat/auth"
	"social-chat/contract"
	"social-chat/domain"
	"social-chat/domain/event"
	"social-chat/services"
	"social-chat/sink"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

type Server struct {
	log        *slog.Logger
	verifier   auth.IVerifier
	chat       services.IChatService
	groups     services.IGroupService
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, verifier auth.IVerifier, chat services.IChatService,
	groups services.IGroupService, connectionBufferSize int) *Server {
	return &Server{
		log:        log,
		verifier:   verifier,
		chat:       chat,
		groups:     groups,
		bufferSize: connectionBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router wires every route of the transport surface.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleConnect).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(Authenticate(s.verifier))
	api.HandleFunc("/groups/create", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/my-groups", s.handleMyGroups).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/messages/attachment", s.handleAttachment).Methods(http.MethodPost)
	return r
}

// handleConnect authenticates the handshake, upgrades the connection, and
// registers it. The credential may come in the Authorization header or, for
// browser clients that cannot set headers on websocket dials, a query
// parameter.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	credential := r.Header.Get("Authorization")
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}
	identity, err := s.verifier.Verify(credential)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	snk := sink.NewConnection(s.bufferSize)
	connID := s.chat.Join(identity, snk)
	s.log.Info("Connection registered",
		"connection_id", connID, "user_id", identity.ID)

	ctx, cancel := context.WithCancel(context.Background())
	session := &session{
		log:      s.log,
		chat:     s.chat,
		ctx:      ctx,
		cancel:   cancel,
		conn:     conn,
		sink:     snk,
		identity: identity,
		connID:   connID,
		acks:     make(chan outboundFrame, s.bufferSize),
	}
	go session.writePump()
	session.readPump()
}

// session serves one live connection: readPump is the connection's handler
// task, writePump is the single writer on the socket. Delivery reaches the
// socket only through the sink's bounded channel.
type session struct {
	log      *slog.Logger
	chat     services.IChatService
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	sink     *sink.Connection
	identity domain.Identity
	connID   contract.ConnectionID
	acks     chan outboundFrame
}

// readPump consumes client frames until the transport signals disconnection,
// then unregisters the connection so it immediately stops being a delivery
// target.
func (s *session) readPump() {
	defer func() {
		s.cancel()
		s.chat.Leave(s.connID)
		s.sink.Close()
		_ = s.conn.Close()
		s.log.Info("Connection unregistered", "connection_id", s.connID)
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Unexpected close", "connection_id", s.connID, "error", err)
			}
			return
		}

		switch frame.Type {
		case TypeSend:
			msg, err := s.chat.PostMessage(s.ctx, s.identity, frame.Content, frame.Group)
			if err != nil {
				// The sender must not believe an unpersisted message was
				// broadcast: rejections come back explicitly.
				s.ack(outboundFrame{Type: TypeError, Error: err.Error()})
				continue
			}
			s.ack(outboundFrame{Type: TypeSent, Message: toPayload(msg)})
		case TypeJoin:
			if err := s.chat.SetRoom(s.connID, frame.Group); err != nil {
				s.ack(outboundFrame{Type: TypeError, Error: err.Error()})
			}
		default:
			s.ack(outboundFrame{Type: TypeError, Error: fmt.Sprintf("unknown frame type %q", frame.Type)})
		}
	}
}

func (s *session) ack(frame outboundFrame) {
	select {
	case s.acks <- frame:
	default:
		s.log.Warn("Ack channel full, dropping frame", "connection_id", s.connID)
	}
}

// writePump is the only goroutine writing on the socket. It drains the
// delivery sink and the ack channel, and keeps the connection alive with
// pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.sink.Done():
			return
		case evt := <-s.sink.Events:
			broadcast, ok := evt.(event.MessageBroadcast)
			if !ok {
				continue
			}
			if err := s.write(outboundFrame{Type: TypeMessage, Message: toPayload(broadcast.Message)}); err != nil {
				return
			}
		case frame := <-s.acks:
			if err := s.write(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) write(frame outboundFrame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(frame)
}

// handleHealth reports liveness with the process's own technical metrics
// (Memory, CPU, OS Status).
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok", "pid": os.Getpid()}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			body["ram_bytes"] = memInfo.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			body["cpu_percent"] = cpu
		}
		if status, err := p.Status(); err == nil {
			body["pid_status"] = status
		}
	}

	writeJSON(w, http.StatusOK, body)
}
