package server

import (
	"net/http"
	"sync/atomic"

	"aspd/internal/session"
	"aspd/internal/theory"
	"aspd/internal/theory/clingcon"
	"aspd/internal/theory/dl"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// DefaultRegistry knows every theory the server can attach.
func DefaultRegistry() *theory.Registry {
	reg := theory.NewRegistry()
	reg.Add(theory.KindDL, dl.New)
	reg.Add(theory.KindClingcon, clingcon.New)
	return reg
}

type Options struct {
	// CreateArgs configures every engine installed by the create route.
	CreateArgs []string
}

type Server struct {
	session  *session.Locked
	opts     Options
	requests atomic.Uint64
}

func New(s *session.Locked, opts Options) *Server {
	return &Server{session: s, opts: opts}
}

type errorResponse struct {
	Type session.ErrorKind `json:"type"`
	Msg  string            `json:"msg"`
}

var statusOf = map[session.ErrorKind]int{
	session.TransportError:    http.StatusBadRequest,
	session.LookupError:       http.StatusNotFound,
	session.SessionStateError: http.StatusConflict,
	session.EngineError:       http.StatusInternalServerError,
	session.InternalError:     http.StatusInternalServerError,
}

func fail(c *gin.Context, err error) {
	kind := session.KindOf(err)
	sessionErrors.WithLabelValues(string(kind)).Inc()
	log.Errorf("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, kind, err)
	c.AbortWithStatusJSON(statusOf[kind], errorResponse{Type: kind, Msg: err.Error()})
}

// do runs fn as one session operation and reports whether it succeeded.
// On failure the error response has been written.
func (s *Server) do(c *gin.Context, fn func(*session.Session) error) bool {
	err := s.session.Do(func(sess *session.Session) error {
		defer func() { sessionState.Set(float64(sess.State())) }()
		return fn(sess)
	})
	if err != nil {
		fail(c, err)
		return false
	}
	return true
}

// body reads the request body. A read failure is answered directly.
func body(c *gin.Context) ([]byte, bool) {
	data, err := c.GetRawData()
	if err != nil {
		fail(c, session.WrapError(session.TransportError, err, "Could not read request body"))
		return nil, false
	}
	return data, true
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/", s.index)
	r.GET("/create", s.create)
	r.GET("/register_dl_theory", s.registerTheory(theory.KindDL, "Difference logic theory registered."))
	r.GET("/register_con_theory", s.registerTheory(theory.KindClingcon, "Clingcon theory registered."))
	r.POST("/add", s.add)
	r.POST("/ground", s.ground)
	r.POST("/assign_external", s.assignExternal)
	r.POST("/release_external", s.releaseExternal)
	r.GET("/solve", s.solve)
	r.POST("/solve_with_assumptions", s.solveWithAssumptions)
	r.GET("/model", s.model)
	r.GET("/resume", s.resume)
	r.GET("/close", s.close)
	r.GET("/statistics", s.statistics)
	r.GET("/configuration", s.configuration)
	r.POST("/set_configuration", s.setConfiguration)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
