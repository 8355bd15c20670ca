package hub

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jeff0926/webinsight-sub001/internal/config"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/version"
)

// tokenTTL is the lifetime of issued peer tokens. Peers are expected to
// re-authenticate when they reconnect.
const tokenTTL = 12 * time.Hour

var upgrader = websocket.Upgrader{
	// The bearer token is the credential; origins matter only for the
	// CORS-guarded REST routes.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the hub's HTTP surface: token issuance, the websocket entry
// point, signed report downloads and health.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	tokens   *crypto.TokenManager
	signer   *crypto.URLSigner
	renderer *report.Renderer
}

// NewServer assembles the HTTP surface over an already-wired hub.
func NewServer(
	cfg *config.Config,
	h *Hub,
	tokens *crypto.TokenManager,
	signer *crypto.URLSigner,
	renderer *report.Renderer,
) *Server {
	return &Server{cfg: cfg, hub: h, tokens: tokens, signer: signer, renderer: renderer}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "WebInsight Hub")
	})
	router.GET("/health", s.getHealth)

	v1 := router.Group("/v1")
	{
		v1.POST("/auth/token", s.postAuthToken)
		v1.GET("/ws", s.getWS)
		v1.GET("/reports/:name", s.getReport)
	}
	return router
}

// requestLogger traces HTTP requests through the package logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debugf("hub: [%s] %s - %d (%v)",
			c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

type tokenRequest struct {
	// Secret must match the hub's master secret.
	Secret string `json:"secret"`

	// Role is "agent" or "panel".
	Role string `json:"role"`

	// TabID binds an agent token to one tab. Ignored for panels.
	TabID string `json:"tabId,omitempty"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// postAuthToken exchanges the install secret for a short-lived peer token.
// POST /v1/auth/token
func (s *Server) postAuthToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.cfg.MasterSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid secret"})
		return
	}

	token, err := s.tokens.Issue(req.Role, req.TabID, tokenTTL)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresIn: int64(tokenTTL.Seconds()),
	})
}

// getWS upgrades the connection and serves the peer until it disconnects.
// GET /v1/ws
func (s *Server) getWS(c *gin.Context) {
	claims, err := s.tokens.Verify(bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("hub: websocket upgrade failed: %v", err)
		return
	}

	conn := transport.NewWSConn(ws)
	switch claims.Role {
	case crypto.RoleAgent:
		s.hub.ServeAgent(c.Request.Context(), conn, claims.TabID)
	case crypto.RolePanel:
		s.hub.ServePanel(c.Request.Context(), conn)
	default:
		conn.Close()
	}
}

// bearerToken pulls the peer token from the Authorization header, falling
// back to the token query parameter for clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return c.Query("token")
}

// getReport serves a rendered PDF when the signature checks out.
// GET /v1/reports/:name?exp=...&sig=...
func (s *Server) getReport(c *gin.Context) {
	name := c.Param("name")
	if err := s.signer.Verify(name, c.Query("exp"), c.Query("sig")); err != nil {
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
		return
	}

	path, err := s.renderer.Open(name)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "report not found"})
		return
	}
	c.File(path)
}

// getHealth reports liveness plus the peer population.
// GET /health
func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version(),
		"agents":  s.hub.AgentCount(),
		"panel":   s.hub.PanelConnected(),
	})
}
