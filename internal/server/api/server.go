package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/lwclone/apitypes"
	"github.com/Alia5/lwclone/internal/server/api/auth"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements a small TCP API for inspecting and driving a device.
type Server struct {
	addr   string
	logger *slog.Logger
	router *Router
	config ServerConfig
	key    []byte

	mu  sync.Mutex
	ln  net.Listener
	ctx context.Context
	// cancel stops every connection when the server closes.
	cancel context.CancelFunc
}

// New creates a new API server. The password, if any, is stretched here.
func New(addr string, config ServerConfig, logger *slog.Logger) (*Server, error) {
	a := &Server{
		addr:   addr,
		logger: logger,
		config: config,
		router: NewRouter(),
	}
	if config.Password != "" {
		key, err := auth.DeriveKey(config.Password)
		if err != nil {
			return nil, err
		}
		a.key = key
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the bound listener address once started, else the configured one.
func (a *Server) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.ln = ln
	a.mu.Unlock()
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil)
	go a.serve(ln)
	return nil
}

// Close stops the API server and cancels open streams.
func (a *Server) Close() {
	a.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln != nil {
		_ = a.ln.Close()
	}
}

func (a *Server) serve(ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		go a.handleConn(c)
	}
}

func (a *Server) writeError(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(WrapError(err))
	fmt.Fprintf(w, "%s\n", string(problemJSON))
}

func (a *Server) writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

// authenticate returns the connection and reader to use for the request.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader) (net.Conn, *bufio.Reader, error) {
	handshake := auth.IsHandshake(r)
	switch {
	case a.key == nil && handshake:
		_ = auth.Discard(r)
		return nil, nil, ErrBadRequest("authentication is not enabled on this server")
	case a.key == nil:
		return conn, r, nil
	case !handshake:
		// consume the request so closing does not reset the connection
		_, _ = r.ReadString('\x00')
		return nil, nil, ErrUnauthorized("authentication required")
	}
	sc, err := auth.Server(conn, r, a.key)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return nil, nil, ErrUnauthorized("invalid password")
		}
		return nil, nil, ErrBadRequest(err.Error())
	}
	return sc, bufio.NewReader(sc), nil
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(a.ctx)
	defer connCancel()
	stop := context.AfterFunc(connCtx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())
	if a.config.ConnectionTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(a.config.ConnectionTimeout))
	}

	w, r, err := a.authenticate(conn, bufio.NewReader(conn))
	if err != nil {
		connLogger.Warn("api auth failed", "error", err)
		a.writeError(conn, err)
		return
	}

	// Read until null terminator
	reqData, err := r.ReadString('\x00')
	if err != nil {
		if err == io.EOF {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	reqData = strings.TrimSuffix(reqData, "\x00")

	if reqData == "" {
		connLogger.Error("api empty command")
		a.writeError(w, ErrBadRequest("empty request"))
		return
	}

	var path, payload string
	if loc := wsRegex.FindStringIndex(reqData); loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
	}

	if path == "" {
		connLogger.Error("api empty path")
		a.writeError(w, ErrBadRequest("empty path"))
		return
	}

	connLogger.Info("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			a.writeError(w, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		a.writeOK(w, res.JSON)
		return
	}
	if sh, params := a.router.MatchStream(path); sh != nil {
		_ = conn.SetReadDeadline(time.Time{})
		connLogger.Info("api stream begin", "path", path)
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		if err := sh(&bufferedConn{Conn: w, r: r}, req, connLogger); err != nil {
			connLogger.Error("api stream handler error", "path", path, "error", err)
			// handlers reject before streaming with an ApiError
			var ae *apitypes.ApiError
			if errors.As(err, &ae) {
				a.writeError(w, ae)
			}
		}
		connLogger.Info("api stream end", "path", path)
		return
	}
	connLogger.Error("api unknown path", "path", path)
	a.writeError(w, ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}

// bufferedConn hands bytes already buffered past the request to a stream.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }
