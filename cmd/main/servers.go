package main

import (
	"context"
	"fmt"

	pb "stock-dashboard/src/grpc_control"
	"stock-dashboard/src/logger"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

// runServers starts the delivery gateway, the refresher and the gRPC control
// server, and blocks until ctx is cancelled or one of them fails.
func runServers(ctx context.Context, app *application, appLogger *logger.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	// 1. HTTP API and WebSocket listeners
	g.Go(func() error {
		return app.Gateway.Serve(ctx)
	})

	// 2. Periodic refresh of subscribed symbols
	g.Go(func() error {
		return app.Refresher.Run(ctx)
	})

	// 3. gRPC Control Server
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", app.Config.GrpcHost, app.Config.GrpcPort)
		controlService := pb.NewControlService(app.Quotes, app.History, app.Cache, app.Hub,
			app.Refresher, app.Sources, app.Archive, logger.NewLogger("ControlService"))
		return pb.Serve(ctx, addr, controlService, logger.NewLogger("ControlServer"))
	})

	err := g.Wait()
	appLogger.Info("All servers stopped")
	return err
}
