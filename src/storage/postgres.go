package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	_ "github.com/lib/pq"
)

const pgConnectAttempts = 5

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB keeps its tables in a schema named after the application
// (config name, else the executable name).
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		Config: cfg,
		Schema: schemaName(cfg.Name),
		Logger: log,
	}
}

func schemaName(appName string) string {
	name := appName
	if name == "" {
		if exe, err := os.Executable(); err == nil {
			name = strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
		}
	}
	name = strings.ToLower(strings.NewReplacer("-", "_", " ", "_", `"`, "").Replace(name))
	if name == "" {
		name = "stock_dashboard"
	}
	return name
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	err = helpers.RetryWithBackoff(context.Background(), d.Logger, "postgres ping", pgConnectAttempts, time.Second, db.Ping)
	if err != nil {
		db.Close()
		return helpers.NewDatabaseError("connect postgres", err)
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError("create schema "+d.Schema, err)
	}
	if err := d.recreateTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) recreateTables() error {
	statements := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."quotes"`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE "%s"."quotes" (
				symbol TEXT,
				timestamp BIGINT,
				price DOUBLE PRECISION,
				change DOUBLE PRECISION,
				change_percent DOUBLE PRECISION,
				volume DOUBLE PRECISION,
				PRIMARY KEY (symbol, timestamp)
			)`, d.Schema),
		fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."candles"`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE "%s"."candles" (
				symbol TEXT,
				period TEXT,
				date BIGINT,
				open DOUBLE PRECISION,
				high DOUBLE PRECISION,
				low DOUBLE PRECISION,
				close DOUBLE PRECISION,
				volume DOUBLE PRECISION,
				PRIMARY KEY (symbol, period, date)
			)`, d.Schema),
	}
	for _, q := range statements {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewDatabaseError("postgres schema", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveQuote(q models.MQuoteRecord) error {
	_, err := d.DB.Exec(fmt.Sprintf(`
		INSERT INTO "%s"."quotes" (symbol, timestamp, price, change, change_percent, volume)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, timestamp) DO NOTHING
	`, d.Schema), q.Symbol, q.Timestamp.UnixMilli(), q.Price, q.Change, q.ChangePercent, q.Volume)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveCandles(symbol, period string, candles []models.MCandleRecord) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."candles" (symbol, period, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, period, date) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume
	`, d.Schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(symbol, period, c.Date.Unix(),
			nullable(c.Open), nullable(c.High), nullable(c.Low), nullable(c.Close), c.Volume); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadCandles(symbol, period string) ([]models.MCandleRecord, error) {
	rows, err := d.DB.Query(fmt.Sprintf(`
		SELECT date, open, high, low, close, volume FROM "%s"."candles"
		WHERE symbol = $1 AND period = $2
		ORDER BY date ASC
	`, d.Schema), symbol, period)
	if err != nil {
		return nil, err
	}
	return scanCandles(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
