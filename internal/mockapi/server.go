package mockapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Reply is one scripted response.
type Reply struct {
	Status int
	Header map[string]string
	// JSON is rendered as the response body when Raw is empty.
	JSON any
	// Raw is written verbatim.
	Raw string
	// Drop aborts the connection without a response.
	Drop bool
}

// UploadedFile is a multipart file part received by the server.
type UploadedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Call is a request received by the server.
type Call struct {
	Method      string
	ContentType string
	Header      http.Header
	Fields      map[string]string
	Files       map[string]UploadedFile
}

// Hook runs before a reply is written. It may block to hold a call in flight.
type Hook func(ctx context.Context, call Call)

// Server is a scripted stand-in for the Web API.
type Server struct {
	router *gin.Engine
	token  string
	extra  []route

	mu       sync.Mutex
	replies  map[string][]Reply
	calls    []Call
	hook     Hook
	inFlight int
	peak     int

	httpServer *httptest.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMiddleware installs gin middleware ahead of every route.
func WithMiddleware(mw ...gin.HandlerFunc) Option {
	return func(s *Server) {
		s.router.Use(mw...)
	}
}

// WithHandler mounts h for GET requests on path, e.g. a metrics endpoint.
func WithHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.extra = append(s.extra, route{path: path, handler: h})
	}
}

type route struct {
	path    string
	handler http.Handler
}

// New creates a server that accepts token as the only valid credential.
// An empty token accepts any non-empty credential.
func New(token string, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:  gin.New(),
		token:   token,
		replies: make(map[string][]Reply),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, r := range s.extra {
		s.router.GET(r.path, gin.WrapH(r.handler))
	}
	s.router.POST("/api/:method", s.handle)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on a loopback listener and returns the API base URL.
func (s *Server) Start() string {
	s.httpServer = httptest.NewServer(s.router)
	return s.URL()
}

// URL returns the API base URL of a started server.
func (s *Server) URL() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.URL + "/api/"
}

// Close stops a started server.
func (s *Server) Close() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// Script queues replies for method, served in order. Once exhausted the
// default behavior resumes.
func (s *Server) Script(method string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method] = append(s.replies[method], replies...)
}

// OnCall installs a hook run for every call before replying.
func (s *Server) OnCall(hook Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Calls returns the received calls, optionally filtered by method.
func (s *Server) Calls(method ...string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(method) == 0 {
		return append([]Call(nil), s.calls...)
	}

	var out []Call
	for _, c := range s.calls {
		if c.Method == method[0] {
			out = append(out, c)
		}
	}
	return out
}

// PeakConcurrency returns the highest number of calls handled at once.
func (s *Server) PeakConcurrency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func (s *Server) handle(c *gin.Context) {
	call, err := readCall(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_form_data"})
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	hook := s.hook
	reply, scripted := s.next(call.Method)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if hook != nil {
		hook(c.Request.Context(), call)
	}

	if !scripted {
		reply = s.defaultReply(call)
	}
	s.write(c, reply)
}

// next pops the head scripted reply. Caller holds mu.
func (s *Server) next(method string) (Reply, bool) {
	queue := s.replies[method]
	if len(queue) == 0 {
		return Reply{}, false
	}
	s.replies[method] = queue[1:]
	return queue[0], true
}

func (s *Server) defaultReply(call Call) Reply {
	token := call.Fields["token"]
	if token == "" {
		if auth := call.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	if call.Method != "api.test" {
		if token == "" {
			return Reply{JSON: gin.H{"ok": false, "error": "not_authed"}}
		}
		if s.token != "" && token != s.token {
			return Reply{JSON: gin.H{"ok": false, "error": "invalid_auth"}}
		}
	}

	args := make(map[string]string, len(call.Fields))
	for k, v := range call.Fields {
		if k != "token" {
			args[k] = v
		}
	}
	return Reply{
		Header: map[string]string{"X-OAuth-Scopes": "chat:write, users:read"},
		JSON:   gin.H{"ok": true, "args": args},
	}
}

func (s *Server) write(c *gin.Context, reply Reply) {
	if reply.Drop {
		panic(http.ErrAbortHandler)
	}

	for k, v := range reply.Header {
		c.Header(k, v)
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	if reply.Raw != "" {
		c.Data(status, "application/json; charset=utf-8", []byte(reply.Raw))
		return
	}
	if reply.JSON == nil {
		c.Status(status)
		return
	}
	c.JSON(status, reply.JSON)
}

func readCall(c *gin.Context) (Call, error) {
	call := Call{
		Method:      c.Param("method"),
		ContentType: c.ContentType(),
		Header:      c.Request.Header.Clone(),
		Fields:      make(map[string]string),
		Files:       make(map[string]UploadedFile),
	}

	if strings.HasPrefix(call.ContentType, "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return call, err
		}
		for k, v := range form.Value {
			if len(v) > 0 {
				call.Fields[k] = v[0]
			}
		}
		for k, headers := range form.File {
			if len(headers) == 0 {
				continue
			}
			fh := headers[0]
			f, err := fh.Open()
			if err != nil {
				return call, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return call, err
			}
			call.Files[k] = UploadedFile{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Content:     data,
			}
		}
		return call, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return call, err
	}
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			call.Fields[k] = v[0]
		}
	}
	return call, nil
}
