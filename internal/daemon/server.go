package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// PreviewServer serves the output tree on a single port, with the livereload
// endpoints and a small status API mounted beside the site.
type PreviewServer struct {
	addr   string
	outDir string
	hub    *LiveReloadHub
	status func() ServeStatus

	srv    *http.Server
	lnAddr string
}

func NewPreviewServer(addr, outputDir string, hub *LiveReloadHub, status func() ServeStatus) *PreviewServer {
	return &PreviewServer{addr: addr, outDir: outputDir, hub: hub, status: status}
}

// Handler returns the route tree the server mounts.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	fileServer := http.FileServer(http.Dir(s.outDir))
	mux.Handle("/", injectLiveReload(fileServer))
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		if _, err := w.Write([]byte(LiveReloadScript)); err != nil {
			slog.Debug("Livereload script write", logfields.Error(err))
		}
	})
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

// Start binds the listener and begins serving. Binding happens here rather
// than in the serve goroutine so a port conflict fails the daemon startup
// instead of being logged after the fact.
func (s *PreviewServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "bind preview server").
			WithContext("addr", s.addr).
			Build()
	}
	s.lnAddr = ln.Addr().String()

	// No write timeout: /livereload holds open SSE connections.
	s.srv = &http.Server{Handler: s.Handler(), ReadTimeout: 30 * time.Second, IdleTimeout: 5 * time.Minute}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Preview server error", logfields.Error(err))
		}
	}()

	slog.Info("Preview server listening",
		slog.String("addr", s.lnAddr),
		slog.String("url", fmt.Sprintf("http://%s/", s.lnAddr)))
	return nil
}

// Addr returns the bound listener address, valid after Start.
func (s *PreviewServer) Addr() string {
	return s.lnAddr
}

// Stop gracefully shuts down the server.
func (s *PreviewServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *PreviewServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		slog.Debug("Status encode", logfields.Error(err))
	}
}

// injectLiveReload wraps a handler so HTML responses pick up the livereload
// client script before the closing body tag.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		htmlPage := path == "/" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !htmlPage {
			next.ServeHTTP(w, r)
			return
		}
		injector := &scriptInjector{ResponseWriter: w, statusCode: http.StatusOK, maxSize: 512 * 1024}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// scriptInjector buffers an HTML response so the livereload script tag can
// be spliced in before </body>. Non-HTML responses and pages over maxSize
// pass through untouched.
type scriptInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func (l *scriptInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *scriptInjector) Write(data []byte) (int, error) {
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > l.maxSize {
		// Too large to buffer; flush what we have and stream the rest.
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
			l.buffer = nil
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize flushes the buffered page with the script tag injected. Must be
// called after the wrapped handler returns.
func (l *scriptInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	page := string(l.buffer)
	const tag = `<script async src="/livereload.js"></script></body>`
	modified := strings.Replace(page, "</body>", tag, 1)

	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	if _, err := l.ResponseWriter.Write([]byte(modified)); err != nil {
		slog.Debug("Injector flush", logfields.Error(err))
	}
}
