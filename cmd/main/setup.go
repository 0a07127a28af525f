package main

import (
	"context"
	"fmt"
	"time"

	"stock-dashboard/src/analysis"
	"stock-dashboard/src/cache"
	datasource "stock-dashboard/src/data_source"
	"stock-dashboard/src/data_source/yahoo"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/network"
	"stock-dashboard/src/server"
	"stock-dashboard/src/service"
	"stock-dashboard/src/storage"
	"stock-dashboard/src/utils"
)

// application holds every long-lived component built at startup.
type application struct {
	Config    *models.MConfig
	Archive   interfaces.IArchive
	Cache     *cache.FreshnessCache
	Sources   *datasource.MultiSourceManager
	Quotes    *service.QuoteService
	History   *service.HistoryService
	Hub       *server.SubscriptionHub
	Gateway   *server.DeliveryGateway
	Refresher *server.Refresher
}

func (a *application) Close() {
	if a.Archive != nil {
		a.Archive.Close()
		a.Archive = nil
	}
}

// -----------------------------------------------------------------------------

func setupApplication(ctx context.Context, cfg *models.MConfig, appLogger *logger.Logger) (*application, error) {
	app := &application{Config: cfg}

	archive, err := setupArchive(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	app.Archive = archive

	sources, err := setupDataSources(cfg, appLogger, setupNetwork(cfg))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sources = sources

	app.Cache = cache.NewFreshnessCache(cache.WithMaxEntries(cfg.Cache.MaxEntries))
	app.Cache.StartSweeper(ctx, time.Duration(cfg.Cache.SweepIntervalSeconds)*time.Second)

	policy := cache.NewTTLPolicy(cfg.Cache.QuoteTTLSeconds, cfg.Cache.HistoryTTLSeconds)
	opts := []service.Option{
		service.WithUpstreamTimeout(time.Duration(cfg.DataSource.UpstreamTimeoutSeconds) * time.Second),
	}
	if archive != nil {
		opts = append(opts, service.WithArchive(archive))
	}

	app.Quotes = service.NewQuoteService(app.Cache, sources, policy, opts...)
	app.History = service.NewHistoryService(app.Cache, sources, policy, cfg.History.LegacyPeriodFallback, opts...)

	app.Hub = server.NewSubscriptionHub(logger.NewLogger("SubscriptionHub"))
	app.Gateway = server.NewDeliveryGateway(cfg, logger.NewLogger("DeliveryGateway"), app.Hub,
		app.Quotes, app.History, analysis.NewAnalysisFacade(cfg.Analysis))

	app.Refresher = server.NewRefresher(app.Hub, app.Quotes,
		time.Duration(cfg.DataSource.RefreshIntervalSeconds)*time.Second,
		cfg.Network.ConcurrentRequests, logger.NewLogger("Refresher"))
	if cfg.DataSource.MarketHoursOnly {
		app.Refresher.Gate = utils.NewMarketScheduler(logger.NewLogger("MarketScheduler"))
	}

	return app, nil
}

// -----------------------------------------------------------------------------

// setupArchive opens the optional quote/candle archive. nil means disabled.
func setupArchive(cfg *models.MConfig, appLogger *logger.Logger) (interfaces.IArchive, error) {
	archive, err := storage.NewArchive(cfg, logger.NewLogger("Archive"))
	if err != nil {
		appLogger.Error("Failed to init archive: %v", err)
		return nil, err
	}
	if archive == nil {
		appLogger.Info("Archive disabled")
	}
	return archive, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(cfg *models.MConfig) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(cfg, logger.NewLogger("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupDataSources builds the configured sources and wraps them in a fallback chain
func setupDataSources(cfg *models.MConfig, appLogger *logger.Logger, networkManager interfaces.INetworkManager) (*datasource.MultiSourceManager, error) {
	var sources []interfaces.IUpstreamClient
	appLogger.Info("Initializing data sources...")

	for _, srcCfg := range cfg.DataSource.Sources {
		switch srcCfg.Type {
		case "yahoo":
			sources = append(sources, yahoo.NewYahooFinanceSource(srcCfg, networkManager))
			appLogger.Info("Added source: %s", srcCfg.Name)
		default:
			appLogger.Warning("Unknown source type in config: %s", srcCfg.Type)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid data sources")
	}

	return datasource.NewMultiSourceManager(sources, logger.NewLogger("MultiSourceManager")), nil
}
