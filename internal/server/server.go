package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rkeerthivasan/estateline/internal/session"
	"github.com/rkeerthivasan/estateline/internal/turn"
	"github.com/rkeerthivasan/estateline/models"
)

// Server exposes the turn boundary to the telephony/CLI layer. The TwiML
// document shaping itself lives with the transport; this surface speaks
// plain JSON.
type Server struct {
	echo   *echo.Echo
	orch   *turn.Orchestrator
	logger *log.Logger
}

// TurnRequest is one utterance for one call. Profile is used only on first
// contact; later turns for a tracked call ignore it.
type TurnRequest struct {
	CallID    string               `json:"call_id"`
	Utterance string               `json:"utterance"`
	Profile   models.ClientProfile `json:"profile"`
}

// HealthResponse mirrors the health endpoint payload.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

func New(orch *turn.Orchestrator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	s := &Server{echo: e, orch: orch, logger: logger}
	e.POST("/turn", s.handleTurn)
	e.DELETE("/calls/:id", s.handleEndCall)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) handleTurn(c echo.Context) error {
	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CallID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "call_id required")
	}

	res, err := s.orch.HandleTurn(c.Request().Context(), req.CallID, req.Profile, req.Utterance)
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusGone, "session expired, please call back")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleEndCall(c echo.Context) error {
	if err := s.orch.EndCall(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	n, err := s.orch.ActiveSessions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", ActiveSessions: n})
}
