package faz

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/transport"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// Gateway is the faz HTTP surface: the connect service, a health endpoint
// and a websocket stream for browsers.
type Gateway struct {
	engine     *gin.Engine
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewGateway mounts the faz service, a health check and the websocket
// stream endpoint on one gin engine.
func NewGateway(d *Dispatcher, logger *slog.Logger, opts ...connect.HandlerOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		engine:     transport.NewEngine(logger),
		dispatcher: d,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}

	transport.Mount(g.engine, NewService(d, logger).Handlers(opts...))
	g.engine.GET("/healthz", g.handleHealth)
	g.engine.GET("/ws/stream", g.handleStream)

	return g
}

// Handler returns the gateway as an http.Handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

func (g *Gateway) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"stream": g.dispatcher.StreamMetrics(),
	})
}

// handleStream subscribes the connection to ?hashtag= as ?username= and
// writes every matching post as a JSON envelope text frame.
func (g *Gateway) handleStream(c *gin.Context) {
	req := caw.StreamRequest{
		Hashtag:  c.Query("hashtag"),
		Username: c.Query("username"),
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := g.dispatcher.Subscribe(ctx, req)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	g.logger.Info(
		"websocket stream opened",
		slog.String("subscriber", sub.ID()),
		slog.String("hashtag", req.Hashtag),
		slog.String("username", req.Username),
	)

	// the read loop only observes the close; incoming frames are ignored
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					g.logger.Debug("websocket read ended", slog.String("error", err.Error()))
				}
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		env, err := sub.Next(ctx)
		if err != nil {
			break
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(env); err != nil {
			break
		}
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
	g.logger.Info("websocket stream closed", slog.String("subscriber", sub.ID()))
}

func httpStatus(err error) int {
	switch connect.CodeOf(connectError(err)) {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case connect.CodeAlreadyExists:
		return http.StatusConflict
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
