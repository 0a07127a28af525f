package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	datasource "stock-dashboard/src/data_source"
	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/server"
	"stock-dashboard/src/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService implements DashboardControlServer
type ControlService struct {
	Quotes    *service.QuoteService
	History   *service.HistoryService
	Cache     interfaces.ICache
	Hub       *server.SubscriptionHub
	Refresher *server.Refresher
	Sources   *datasource.MultiSourceManager
	Archive   interfaces.IArchive // nil when storage.db_type is none
	Logger    *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	quotes *service.QuoteService,
	history *service.HistoryService,
	c interfaces.ICache,
	hub *server.SubscriptionHub,
	refresher *server.Refresher,
	sources *datasource.MultiSourceManager,
	archive interfaces.IArchive,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Quotes:    quotes,
		History:   history,
		Cache:     c,
		Hub:       hub,
		Refresher: refresher,
		Sources:   sources,
		Archive:   archive,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) Stats(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	symbols := make([]interface{}, 0)
	for _, sym := range s.Hub.Symbols() {
		symbols = append(symbols, sym)
	}

	return structpb.NewStruct(map[string]interface{}{
		"quote":              statsMap(s.Quotes.Stats()),
		"history":            statsMap(s.History.Stats()),
		"cache_entries":      s.Cache.Len(),
		"connections":        s.Hub.ConnectionCount(),
		"subscribed_symbols": symbols,
	})
}

func statsMap(st service.Stats) map[string]interface{} {
	return map[string]interface{}{
		"upstream_calls": st.UpstreamCalls,
		"cache_hits":     st.CacheHits,
		"coalesced":      st.Coalesced,
		"failures":       st.Failures,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSources(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	names := make([]interface{}, 0)
	for _, src := range s.Sources.GetAllSources() {
		names = append(names, src.Name())
	}
	return structpb.NewStruct(map[string]interface{}{"sources": names})
}

// -----------------------------------------------------------------------------

func (s *ControlService) InvalidateSymbol(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	symbol, err := service.NormalizeSymbol(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.Quotes.Invalidate(symbol)
	n := s.History.Invalidate(symbol)
	s.Logger.Info("gRPC: invalidated %s (quote + %d history entries)", symbol, n)
	return &emptypb.Empty{}, nil
}

// -----------------------------------------------------------------------------

// RefreshSymbol refetches a symbol past its cache and publishes it to current subscribers.
func (s *ControlService) RefreshSymbol(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	symbol, err := service.NormalizeSymbol(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.Quotes.Invalidate(symbol)
	quote, outcomes, err := s.Refresher.Force(ctx, symbol)
	if err != nil {
		if helpers.IsUpstream(err) {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	delivered, failed := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		} else {
			delivered++
		}
	}

	return structpb.NewStruct(map[string]interface{}{
		"symbol":         quote.Symbol,
		"price":          quote.Price,
		"change":         quote.Change,
		"change_percent": quote.ChangePercent,
		"volume":         quote.Volume,
		"timestamp":      quote.Timestamp.Format(time.RFC3339Nano),
		"delivered":      delivered,
		"failed":         failed,
	})
}

// -----------------------------------------------------------------------------

// ArchivedCandles summarises what the archive holds for a symbol and period.
func (s *ControlService) ArchivedCandles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.Archive == nil {
		return nil, status.Error(codes.FailedPrecondition, "archive disabled")
	}

	fields := req.GetFields()
	symbol, err := service.NormalizeSymbol(fields["symbol"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	period := fields["period"].GetStringValue()
	if period == "" {
		period = service.DefaultPeriod
	}
	if !service.ValidPeriod(period) {
		return nil, status.Error(codes.InvalidArgument, helpers.NewInvalidPeriodError(period).Error())
	}

	candles, err := s.Archive.LoadCandles(symbol, period)
	if err != nil {
		s.Logger.With("symbol", symbol).Error("gRPC: load archived %s candles: %v", period, err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	out := map[string]interface{}{
		"symbol": symbol,
		"period": period,
		"count":  len(candles),
	}
	if n := len(candles); n > 0 {
		out["first"] = candles[0].Date.Format(time.RFC3339)
		out["last"] = candles[n-1].Date.Format(time.RFC3339)
		if c := candles[n-1].Close; c != nil {
			out["last_close"] = *c
		}
	}
	return structpb.NewStruct(out)
}

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Serve exposes the control service on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, svc DashboardControlServer, log *logger.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, lis, svc, log)
}

func ServeListener(ctx context.Context, lis net.Listener, svc DashboardControlServer, log *logger.Logger) error {
	srv := grpc.NewServer()
	RegisterDashboardControlServer(srv, svc)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	log.Info("gRPC control server listening on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}
