package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/ideamans/go-l10n"

	"github.com/user/lottie2apng/pkg/adapters/osfilesystem"
	"github.com/user/lottie2apng/pkg/config"
	"github.com/user/lottie2apng/pkg/converter"
	"github.com/user/lottie2apng/pkg/orchestrator"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// ServeCmd runs the HTTP conversion service.
type ServeCmd struct {
	Addr         string `short:"a" help:"Listen address (default: 127.0.0.1:8080)."`
	MaxBodyBytes int64  `help:"Maximum upload size in bytes."`
	Renderer     string `short:"r" help:"Renderer (auto, vector, chrome)."`
	Config       string `short:"c" type:"path" help:"Configuration file (YAML or TOML)."`
	LogLevel     string `short:"l" help:"Log level (debug, info, warn, error)."`
}

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// Run executes the serve command.
func (cmd *ServeCmd) Run() error {
	fileCfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		fileCfg.Serve.Addr = cmd.Addr
	}
	if cmd.MaxBodyBytes > 0 {
		fileCfg.Serve.MaxBodyBytes = cmd.MaxBodyBytes
	}
	if cmd.Renderer != "" {
		fileCfg.Renderer = cmd.Renderer
	}
	if cmd.LogLevel != "" {
		fileCfg.LogLevel = cmd.LogLevel
	}
	if err := fileCfg.Validate(); err != nil {
		return err
	}

	log := newLogger(fileCfg.LogLevel, false)
	ctx, cancel := signalContext(log)
	defer cancel()

	srv, err := newServer(ctx, fileCfg, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fileCfg.Serve.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.session.Cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("Listening on %s", fileCfg.Serve.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// server converts uploaded animations one at a time. A new upload
// supersedes the conversion in flight.
type server struct {
	conv     *converter.Converter
	session  *orchestrator.Session
	base     converter.Config
	maxBody  int64
	logger   ports.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*websocket.Conn]*sync.Mutex
	messages chan orchestrator.Status
}

func newServer(ctx context.Context, fileCfg config.Config, log ports.Logger) (*server, error) {
	base := converter.NewConfigBuilderFrom(fileCfg).Build()
	conv := converter.New(osfilesystem.New(), log)
	orch, err := conv.NewOrchestrator(base)
	if err != nil {
		return nil, err
	}

	s := &server{
		conv:    conv,
		session: orchestrator.NewSession(orch),
		base:    base,
		maxBody: fileCfg.Serve.MaxBodyBytes,
		logger:  log.WithComponent("serve"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		messages: make(chan orchestrator.Status, 64),
	}
	go s.broadcast(ctx)
	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /convert", s.handleConvert)
	mux.HandleFunc("POST /cancel", s.handleCancel)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// requestConfig applies the scale, quality and fps query parameters to the
// server defaults.
func (s *server) requestConfig(r *http.Request) (converter.Config, error) {
	cfg := s.base
	q := r.URL.Query()

	if v := q.Get("scale"); v != "" {
		scale, err := strconv.Atoi(v)
		if err != nil {
			return cfg, pipeline.Wrap(pipeline.ErrConfiguration, "serve", "scale", err)
		}
		if err := pipeline.ValidateScale(scale); err != nil {
			return cfg, err
		}
		cfg.Scale = scale
	}
	if v := q.Get("quality"); v != "" {
		quality, err := pipeline.ParseQuality(v)
		if err != nil {
			return cfg, err
		}
		cfg.Quality = quality
	}
	if v := q.Get("fps"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, pipeline.Wrap(pipeline.ErrConfiguration, "serve", "fps", err)
		}
		if err := pipeline.ValidateFrameRate(fps); err != nil {
			return cfg, err
		}
		cfg.FPS = fps
	}
	return cfg, nil
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cfg, err := s.requestConfig(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, l10n.F("Upload exceeds %s", humanize.IBytes(uint64(s.maxBody))), http.StatusRequestEntityTooLarge)
			return
		}
		s.writeError(w, pipeline.Wrap(pipeline.ErrValidation, "serve", "read body", err))
		return
	}

	input, err := s.conv.OpenBytes(data, r.URL.Query().Get("name"), cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}

	runCfg := cfg.ToOrchestratorConfig(input, "")
	runCfg.Progress = ports.ProgressFunc(func(float64, string) { s.publish() })
	runCfg.OnState = func(pipeline.RunState) { s.publish() }

	result, err := s.session.Run(r.Context(), runCfg)
	s.publish()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("Served %s (%s) in %s", result.Filename, humanize.Bytes(uint64(result.FileSize)), time.Since(start).Round(time.Millisecond))

	w.Header().Set("Content-Type", result.Animation.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Animation.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("X-Run-Id", result.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Animation.Data)
}

func (s *server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.session.Cancel()
	s.writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusCode maps an error kind to an HTTP status.
func statusCode(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation, pipeline.KindConfiguration:
		return http.StatusBadRequest
	case pipeline.KindCanceled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	} else {
		s.logger.Debug("Request rejected: %v", err)
	}
	s.writeJSON(w, code, map[string]string{
		"error": pipeline.UserMessage(err),
		"kind":  string(pipeline.KindOf(err)),
	})
}

func (s *server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// publish queues the current status for websocket clients. Updates are
// dropped while the queue is full.
func (s *server) publish() {
	select {
	case s.messages <- s.session.Status():
	default:
	}
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = writeMu
	s.mu.Unlock()
	s.logger.Debug("Websocket client connected (%d total)", s.clientCount())

	_ = s.writeMessage(conn, writeMu, websocket.TextMessage, mustJSON(s.session.Status()))

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			// Clients only send control frames; reading drives the pong handler.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case status := <-s.messages:
			payload := mustJSON(status)
			var stale []*websocket.Conn
			s.mu.Lock()
			for conn, writeMu := range s.clients {
				if err := s.writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
					stale = append(stale, conn)
				}
			}
			s.mu.Unlock()
			for _, conn := range stale {
				s.removeClient(conn)
			}
		}
	}
}

func (s *server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *server) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return b
}
