package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"islandgen/internal/protocol"
	"islandgen/internal/runner"
)

// Runner is satisfied by *runner.Runner.
type Runner interface {
	Run(ctx context.Context, req runner.Request) (runner.Result, error)
	Latest() (runner.Result, bool)
	Busy() bool
}

type client struct {
	id  string
	out chan []byte
}

// Server streams LEVEL messages to every connected renderer and accepts REGENERATE requests.
type Server struct {
	runner Runner
	log    *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	nextID  atomic.Uint64

	// PassTimeout bounds a websocket-triggered pass; zero means no limit.
	PassTimeout time.Duration
}

func NewServer(r Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		runner: r,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[*client]struct{}{},
	}
}

// Clients returns the number of connected sessions.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast is a runner.Listener: it pushes a finished level to every session except the one that
// requested it, which already got a direct reply.
func (s *Server) Broadcast(res runner.Result, req runner.Request) {
	b, err := json.Marshal(protocol.NewLevelMsg("", res.Level))
	if err != nil {
		s.log.Printf("ws broadcast marshal: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if req.Trigger == runner.TriggerWS && c.id == req.Origin {
			continue
		}
		select {
		case c.out <- b:
		default:
			// Slow renderer: drop; it can request the next pass.
		}
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{
			id:  fmt.Sprintf("S%d", s.nextID.Add(1)),
			out: make(chan []byte, 8),
		}
		if err := s.welcome(conn, c); err != nil {
			return
		}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.reply(ctx, c, protocol.NewError("", protocol.ErrBadRequest, "invalid json"))
				continue
			}
			if base.Type != protocol.TypeRegenerate {
				s.reply(ctx, c, protocol.NewError("", protocol.ErrBadRequest, "unsupported message type: "+base.Type))
				continue
			}
			req, err := protocol.DecodeRegenerate(msg)
			if err != nil {
				s.reply(ctx, c, protocol.NewError("", protocol.ErrBadRequest, err.Error()))
				continue
			}
			if req.ProtocolVersion != protocol.Version {
				s.reply(ctx, c, protocol.NewError(req.RequestID, protocol.ErrBadRequest, "bad protocol_version"))
				continue
			}
			s.regenerate(ctx, c, req)
		}
	}
}

func (s *Server) welcome(conn *websocket.Conn, c *client) error {
	w := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       c.id,
		Busy:            s.runner.Busy(),
	}
	latest, ok := s.runner.Latest()
	if ok {
		w.LatestPass = latest.Level.Pass
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(w); err != nil {
		return err
	}
	if ok {
		// Late joiners get the current level right away.
		return conn.WriteJSON(protocol.NewLevelMsg("", latest.Level))
	}
	return nil
}

func (s *Server) regenerate(ctx context.Context, c *client, req protocol.RegenerateMsg) {
	passCtx := ctx
	if s.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.PassTimeout)
		defer cancel()
	}
	res, err := s.runner.Run(passCtx, runner.Request{Trigger: runner.TriggerWS, Seed: req.Seed, Origin: c.id})
	if err != nil {
		s.log.Printf("ws %s regenerate: %v", c.id, err)
		s.reply(ctx, c, protocol.NewError(req.RequestID, protocol.CodeFor(err), err.Error()))
		return
	}
	s.reply(ctx, c, protocol.NewLevelMsg(req.RequestID, res.Level))
}

func (s *Server) reply(ctx context.Context, c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("ws %s marshal: %v", c.id, err)
		return
	}
	select {
	case c.out <- b:
	case <-ctx.Done():
	}
}
