// Command fitsslice-server serves FITS sub-region slices over HTTP, the Go
// counterpart of the original subfits_server. A GET request's path names a
// file under the server's root directory and its query string is the
// selector; the response body is the sliced FITS stream.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/amaurea/fitsslice"
	"github.com/amaurea/fitsslice/pkg/slice"
)

func main() {
	port := pflag.IntP("port", "p", 8200, "listen on this port")
	logPath := pflag.StringP("log", "l", "", "write request log to this file instead of stderr")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [root_dir]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  root_dir  server paths are relative to this directory; default \".\"")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	basedir := "."
	if pflag.NArg() > 0 {
		basedir = pflag.Arg(0)
	}
	baseAbs, err := filepath.Abs(basedir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving root_dir: %v\n", err)
		os.Exit(1)
	}

	logOut := os.Stderr
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	logger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	srv := &server{basedir: baseAbs, engine: fitsslice.NewEngine(nil), logger: logger}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: srv,
	}

	logger.Infof("fitsslice-server listening on port %d, root %s", *port, baseAbs)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server exited: %v", err)
	}
}

// server serves sliced FITS files from a single root directory. Every
// request is handled on its own goroutine by net/http, replacing the
// original's fixed-size pthread pool.
type server struct {
	basedir string
	engine  *fitsslice.Engine
	logger  *log.Logger
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respond(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("only GET is supported, but got %q", r.Method))
		return
	}

	path, ok := s.resolvePath(r.URL.Path)
	if !ok {
		s.respond(w, r, http.StatusNotFound, "")
		return
	}

	in, err := os.Open(path)
	if err != nil {
		code := http.StatusInternalServerError
		if os.IsNotExist(err) {
			code = http.StatusNotFound
		} else if os.IsPermission(err) {
			code = http.StatusForbidden
		}
		s.respond(w, r, code, "")
		return
	}
	defer func() { _ = in.Close() }()

	selector := r.URL.RawQuery

	dryRun, err := s.engine.Slice(in, nil, selector)
	if err != nil {
		code := http.StatusInternalServerError
		if dryRun != nil && dryRun.Code == slice.EVALS {
			code = http.StatusBadRequest
		}
		s.respond(w, r, code, err.Error())
		return
	}

	conn, out, err := hijackFile(w)
	if err != nil {
		s.respond(w, r, http.StatusInternalServerError, "hijack failed")
		return
	}
	defer func() { _ = out.Close(); _ = conn.Close() }()

	header := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\nContent-Type: image/fits\r\nConnection: close\r\n\r\n", dryRun.Size)
	if _, err := conn.Write([]byte(header)); err != nil {
		s.logger.Errorf("writing response header to %s: %v", r.RemoteAddr, err)
		return
	}

	if _, err := s.engine.Slice(in, out, selector); err != nil {
		s.logger.Errorf("slicing %s for %s: %v", path, r.RemoteAddr, err)
		return
	}
	s.logRequest(r, http.StatusOK)
}

// resolvePath joins urlPath onto the server root and rejects any result
// that escapes it, the Go counterpart of the original's realpath-plus-
// starts_with containment check.
func (s *server) resolvePath(urlPath string) (string, bool) {
	joined := filepath.Join(s.basedir, filepath.FromSlash(urlPath))
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", false
	}
	if abs != s.basedir && !strings.HasPrefix(abs, s.basedir+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// respond writes a status response, with detail as a plain-text body when
// it is non-empty, and logs the request line, the Go counterpart of the
// original's send_header.
func (s *server) respond(w http.ResponseWriter, r *http.Request, code int, detail string) {
	if detail != "" {
		http.Error(w, detail, code)
	} else {
		w.WriteHeader(code)
	}
	s.logRequest(r, code)
}

func (s *server) logRequest(r *http.Request, code int) {
	s.logger.Infof("%20s - %d - %s", r.RemoteAddr, code, r.URL.String())
}

// hijackFile takes over the connection backing w and returns both the raw
// connection and a duplicated file descriptor suitable for the engine's
// vectored writes directly to the socket, mirroring the original's use of
// the accepted client socket descriptor as the slicer's output fd.
func hijackFile(w http.ResponseWriter) (net.Conn, *os.File, error) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return nil, nil, err
	}
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("hijacked connection is not a TCP connection")
	}
	f, err := tcp.File()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, f, nil
}
