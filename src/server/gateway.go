package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stock-dashboard/src/analysis"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------
// DeliveryGateway
// -----------------------------------------------------------------------------

// DeliveryGateway owns both client surfaces: the HTTP pull API and the
// WebSocket push endpoint. They listen on separate ports.
type DeliveryGateway struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Hub      *SubscriptionHub
	Quotes   interfaces.IQuoteService
	History  interfaces.IHistoryService
	Analysis *analysis.AnalysisFacade

	api *gin.Engine
	ws  *gin.Engine

	// ctx bounds fetches started on behalf of WebSocket clients
	ctx context.Context
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDeliveryGateway(cfg *models.MConfig, log *logger.Logger, hub *SubscriptionHub,
	quotes interfaces.IQuoteService, history interfaces.IHistoryService, an *analysis.AnalysisFacade) *DeliveryGateway {

	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	g := &DeliveryGateway{
		Config:   cfg,
		Logger:   log,
		Hub:      hub,
		Quotes:   quotes,
		History:  history,
		Analysis: an,
		api:      gin.New(),
		ws:       gin.New(),
		ctx:      context.Background(),
	}

	g.api.Use(gin.Recovery(), corsMiddleware())
	g.ws.Use(gin.Recovery())
	g.setupRoutes()
	return g
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (g *DeliveryGateway) setupRoutes() {
	api := g.api.Group("/api")
	api.GET("/health", g.getHealth)
	api.GET("/stocks/:symbol/history", g.getHistory)
	api.GET("/stocks/:symbol/quote", g.getQuote)
	api.GET("/stocks/:symbol/indicators", g.getIndicators)
	api.GET("/analysis/correlation", g.getCorrelation)

	g.ws.GET("/", g.handleWebSocket)
	g.ws.GET("/ws", g.handleWebSocket)
}

// APIHandler serves the pull surface.
func (g *DeliveryGateway) APIHandler() http.Handler {
	return g.api
}

// WSHandler serves the push surface.
func (g *DeliveryGateway) WSHandler() http.Handler {
	return g.ws
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Serve listens on the HTTP and WebSocket ports until ctx is cancelled.
func (g *DeliveryGateway) Serve(ctx context.Context) error {
	g.ctx = ctx

	servers := []*http.Server{
		{Addr: fmt.Sprintf("%s:%d", g.Config.Host, g.Config.HTTPPort), Handler: g.api},
		{Addr: fmt.Sprintf("%s:%d", g.Config.Host, g.Config.WSPort), Handler: g.ws},
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		group.Go(func() error {
			g.Logger.Info("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				g.Logger.Warning("Shutdown %s: %v", srv.Addr, err)
			}
		}
		// hijacked WebSocket connections are not tracked by http.Server
		g.Hub.CloseAll()
		return nil
	})

	return group.Wait()
}
