package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
)

// NewArchive builds the archive selected by storage.db_type and initializes it.
// "none" (or empty) returns a nil archive: nothing is recorded.
func NewArchive(cfg *models.MConfig, log *logger.Logger) (interfaces.IArchive, error) {
	var archive interfaces.IArchive

	switch cfg.Storage.DBType {
	case "", "none":
		log.Info("Archive disabled")
		return nil, nil
	case "sqlite":
		archive = NewAsyncSQLiteDB(cfg, log)
	case "postgres":
		archive = NewPostgresDB(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported db_type %q", cfg.Storage.DBType)
	}

	if err := archive.Initialize(); err != nil {
		return nil, err
	}
	return archive, nil
}

// -----------------------------------------------------------------------------
// Column helpers shared by both drivers
// -----------------------------------------------------------------------------

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func scanCandles(rows *sql.Rows) ([]models.MCandleRecord, error) {
	defer rows.Close()

	var out []models.MCandleRecord
	for rows.Next() {
		var (
			date                   int64
			open, high, low, close sql.NullFloat64
			volume                 float64
		)
		if err := rows.Scan(&date, &open, &high, &low, &close, &volume); err != nil {
			return nil, err
		}
		out = append(out, models.MCandleRecord{
			Date:   time.Unix(date, 0).UTC(),
			Open:   fromNull(open),
			High:   fromNull(high),
			Low:    fromNull(low),
			Close:  fromNull(close),
			Volume: volume,
		})
	}
	return out, rows.Err()
}
