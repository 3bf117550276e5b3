package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/san-kum/earther/internal/calendar"
	"github.com/san-kum/earther/internal/config"
	"github.com/san-kum/earther/internal/scene"
	"github.com/san-kum/earther/internal/shell"
)

const writeWait = 5 * time.Second

// Lookup resolves "model/var" to a catalog entry.
type Lookup func(key string) (config.VariableDesc, bool)

type Options struct {
	FPS     int
	RunID   string
	Fetcher shell.Fetcher
	Lookup  Lookup
	Logger  zerolog.Logger
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type command struct {
	from *client
	msg  ClientMessage
}

// Server streams a World to browsers over WebSocket. Only the Run goroutine
// touches the World; connections talk to it through channels.
type Server struct {
	world    *scene.World
	opts     Options
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*client]struct{}

	joins    chan *client
	commands chan command
	meshSent map[*shell.Shell]bool
	log      zerolog.Logger
}

func New(w *scene.World, opts Options) *Server {
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	return &Server{
		world: w,
		opts:  opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		joins:    make(chan *client, 16),
		commands: make(chan command, 16),
		meshSent: make(map[*shell.Shell]bool),
		log:      opts.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	defer func() {
		s.removeClient(c)
		conn.Close()
	}()

	select {
	case s.joins <- c:
	case <-r.Context().Done():
		return
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		select {
		case s.commands <- command{from: c, msg: msg}:
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Run ticks the world and broadcasts until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()
	defer s.world.Discard()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-s.joins:
			s.addClient(c)
			if err := c.send(s.meshMessage()); err != nil {
				s.log.Warn().Err(err).Msg("initial mesh not sent")
			}
		case cmd := <-s.commands:
			if err := s.handle(ctx, cmd.msg); err != nil {
				s.log.Warn().Err(err).Str("type", cmd.msg.Type).Msg("client command failed")
				s.reply(cmd.from, err)
			}
		case now := <-ticker.C:
			s.step(now)
		}
	}
}

// reply reports a failed command to the client that sent it.
func (s *Server) reply(c *client, cause error) {
	if err := c.send(ErrorMessage{Type: TypeError, Message: cause.Error()}); err != nil {
		s.log.Debug().Err(err).Msg("websocket write")
	}
}

func (s *Server) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case TypeLoad:
		key := msg.Model + "/" + msg.VarName
		desc, ok := s.opts.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, key)
		}
		runID := msg.RunID
		if runID == "" {
			runID = s.opts.RunID
		}
		if err := s.world.LoadVariable(ctx, s.opts.Fetcher, runID, desc); err != nil {
			return err
		}
		s.meshSent = make(map[*shell.Shell]bool)
		s.broadcast(s.meshMessage())
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
	}
}

func (s *Server) meshMessage() MeshMessage {
	m := MeshMessage{
		Type:     TypeMesh,
		RunID:    s.world.RunID(),
		Variable: s.world.Variable().Key(),
		Globe:    globeGeometry(s.world.Globe),
		Shells:   make([]ShellGeometry, 0, len(s.world.Shells)),
	}
	if m.Variable == "/" {
		m.Variable = ""
	}
	for _, sh := range s.world.Shells {
		m.Shells = append(m.Shells, shellGeometry(sh))
		if sh.Mesh() != nil {
			s.meshSent[sh] = true
		}
	}
	return m
}

func (s *Server) step(now time.Time) {
	s.world.Tick(now)
	for _, sh := range s.world.Shells {
		if sh.Mesh() != nil && !s.meshSent[sh] {
			s.meshSent[sh] = true
			s.broadcast(ShellMeshMessage{Type: TypeShellMesh, ShellGeometry: shellGeometry(sh)})
		}
		if sh.Shown() < 0 {
			continue
		}
		u := ShellUpdate{
			Type:      TypeShellUpdate,
			ID:        sh.Variable().Key(),
			Level:     sh.Variable().Level,
			Rotation:  s.world.Rotation,
			Frame:     sh.Shown(),
			Colors:    cellColors(sh.Faces()),
			Materials: cellMaterials(sh.Materials()),
			Groups:    sh.Groups(),
		}
		if t, ok := sh.ShownTime(); ok {
			u.Label = calendar.LabelForTime(t)
		}
		s.broadcast(u)
	}
}

func (s *Server) broadcast(v any) {
	s.clientsMu.RLock()
	var failed []*client
	for c := range s.clients {
		if err := c.send(v); err != nil {
			s.log.Debug().Err(err).Msg("websocket write")
			c.conn.Close()
			failed = append(failed, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range failed {
		s.removeClient(c)
	}
}
