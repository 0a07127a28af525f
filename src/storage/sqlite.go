package storage

import (
	"database/sql"
	"fmt"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) *AsyncSQLiteDB {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Storage.DBPath)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	// one writer avoids SQLITE_BUSY between concurrent saves
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.recreateTables(); err != nil {
		return err
	}
	d.Logger.Info("SQLite archive ready at %s", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

// recreateTables starts every run with an empty archive.
func (d *AsyncSQLiteDB) recreateTables() error {
	statements := []string{
		"DROP TABLE IF EXISTS quotes",
		`CREATE TABLE quotes (
			symbol TEXT,
			timestamp INTEGER,
			price REAL,
			change REAL,
			change_percent REAL,
			volume REAL,
			PRIMARY KEY (symbol, timestamp)
		)`,
		"DROP TABLE IF EXISTS candles",
		`CREATE TABLE candles (
			symbol TEXT,
			period TEXT,
			date INTEGER,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume REAL,
			PRIMARY KEY (symbol, period, date)
		)`,
	}
	for _, q := range statements {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("sqlite schema (%.30s)", q), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveQuote(q models.MQuoteRecord) error {
	_, err := d.DB.Exec(`
		INSERT OR REPLACE INTO quotes (symbol, timestamp, price, change, change_percent, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.Symbol, q.Timestamp.UnixMilli(), q.Price, q.Change, q.ChangePercent, q.Volume)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveCandles(symbol, period string, candles []models.MCandleRecord) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO candles (symbol, period, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, period, date) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume
	`)
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

func (d *AsyncSQLiteDB) LoadCandles(symbol, period string) ([]models.MCandleRecord, error) {
	rows, err := d.DB.Query(`
		SELECT date, open, high, low, close, volume FROM candles
		WHERE symbol = ? AND period = ?
		ORDER BY date ASC
	`, symbol, period)
	if err != nil {
		return nil, err
	}
	return scanCandles(rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
