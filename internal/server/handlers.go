package server

import (
	"fmt"
	"net/http"

	"aspd/internal/asp"
	"aspd/internal/session"
	"aspd/internal/theory"
	"aspd/internal/util"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (s *Server) index(c *gin.Context) {
	n := s.requests.Add(1) - 1
	c.String(http.StatusOK, fmt.Sprintf("This is request #%d.", n))
}

func (s *Server) create(c *gin.Context) {
	if s.do(c, func(sess *session.Session) error { return sess.Create(s.opts.CreateArgs) }) {
		c.String(http.StatusOK, "Created clingo Solver.")
	}
}

func (s *Server) registerTheory(kind theory.Kind, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.do(c, func(sess *session.Session) error { return sess.AttachTheory(kind) }) {
			c.String(http.StatusOK, msg)
		}
	}
}

// add appends the body to the block given by the name query parameter,
// base by default.
func (s *Server) add(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	name := c.DefaultQuery("name", "base")
	params := c.QueryArray("param")
	log.Infof("add %d bytes to %s, digest %s", len(data), name, util.ProgramDigest(data))
	if s.do(c, func(sess *session.Session) error { return sess.Add(name, params, string(data)) }) {
		c.String(http.StatusOK, "Added data to Solver.")
	}
}

func (s *Server) ground(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	parts, err := decodeParts(data)
	if err != nil {
		fail(c, err)
		return
	}
	if s.do(c, func(sess *session.Session) error { return sess.Ground(parts) }) {
		c.String(http.StatusOK, "Grounding.")
	}
}

func (s *Server) assignExternal(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	sym, tv, err := decodeAssignment(data)
	if err != nil {
		fail(c, err)
		return
	}
	if s.do(c, func(sess *session.Session) error { return sess.AssignExternal(sym, tv) }) {
		c.String(http.StatusOK, "External assigned.")
	}
}

func (s *Server) releaseExternal(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	sym, err := decodeSymbol(data)
	if err != nil {
		fail(c, err)
		return
	}
	if s.do(c, func(sess *session.Session) error { return sess.ReleaseExternal(sym) }) {
		c.String(http.StatusOK, "External released.")
	}
}

func (s *Server) solve(c *gin.Context) {
	if s.do(c, func(sess *session.Session) error { return sess.Solve(asp.SolveAsync|asp.SolveYield, nil) }) {
		c.String(http.StatusOK, "Solver solving.")
	}
}

func (s *Server) solveWithAssumptions(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	assumptions, err := decodeAssumptions(data)
	if err != nil {
		fail(c, err)
		return
	}
	if s.do(c, func(sess *session.Session) error { return sess.SolveWithAssumptions(assumptions) }) {
		c.String(http.StatusOK, "Solving with assumptions.")
	}
}

func (s *Server) model(c *gin.Context) {
	var res session.ModelResult
	ok := s.do(c, func(sess *session.Session) (err error) {
		res, err = sess.Model()
		return err
	})
	if !ok {
		return
	}
	if res.Status == session.ModelFound {
		modelsServed.Inc()
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) resume(c *gin.Context) {
	if s.do(c, func(sess *session.Session) error { return sess.Resume() }) {
		c.String(http.StatusOK, "Search is resumed.")
	}
}

func (s *Server) close(c *gin.Context) {
	if s.do(c, func(sess *session.Session) error { return sess.Close() }) {
		c.String(http.StatusOK, "Solve handle closed.")
	}
}

func (s *Server) statistics(c *gin.Context) {
	var tree session.StatisticsTree
	ok := s.do(c, func(sess *session.Session) (err error) {
		tree, err = sess.Statistics()
		return err
	})
	if ok {
		c.JSON(http.StatusOK, tree)
	}
}

func (s *Server) configuration(c *gin.Context) {
	var tree session.ConfigurationTree
	ok := s.do(c, func(sess *session.Session) (err error) {
		tree, err = sess.Configuration()
		return err
	})
	if ok {
		c.JSON(http.StatusOK, tree)
	}
}

func (s *Server) setConfiguration(c *gin.Context) {
	data, ok := body(c)
	if !ok {
		return
	}
	in, err := session.ParseConfiguration(data)
	if err != nil {
		fail(c, err)
		return
	}
	var out session.ConfigurationTree
	ok = s.do(c, func(sess *session.Session) (err error) {
		out, err = sess.SetConfiguration(in)
		return err
	})
	if ok {
		c.JSON(http.StatusOK, out)
	}
}
