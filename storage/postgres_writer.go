package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"suumo-scraper/models"
	"suumo-scraper/utils"
)

// columnDef is one column of the declared store schema. The schema is kept
// declarative so the additive migration can be reasoned about and tested
// without a live database.
type columnDef struct {
	name     string
	sqlType  string
	nullable bool
}

// listingColumns is the full current shape of the listings table. New
// columns are appended here over the product's lifetime; the migration adds
// whatever an existing database is missing and never drops or renames, so
// rows written under older shapes survive null-filled.
var listingColumns = []columnDef{
	{"run_date", "TEXT", false},
	{"category", "TEXT", false},
	{"sub_category", "TEXT", false},
	{"listing_id", "TEXT", false},
	{"title", "TEXT", true},
	{"address", "TEXT", true},
	{"price_text", "TEXT", true},
	{"price_yen", "DOUBLE PRECISION", true},
	{"area_sqm", "DOUBLE PRECISION", true},
	{"area_tsubo", "DOUBLE PRECISION", true},
	{"unit_price_per_sqm", "DOUBLE PRECISION", true},
	{"unit_price_per_tsubo", "DOUBLE PRECISION", true},
	{"layout_text", "TEXT", true},
	{"detail_text", "TEXT", true},
	{"detail_url", "TEXT", true},
}

// PostgresWriter persists runs into the listings table and the runs ledger.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection, waits for the database to accept
// pings (retrying up to maxRetries times), applies the additive schema
// migration and returns a ready writer.
func NewPostgresWriter(dsn string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	if _, err := pw.db.Exec(createListingsSQL()); err != nil {
		return err
	}
	if _, err := pw.db.Exec(createRunsSQL()); err != nil {
		return err
	}

	existing, err := pw.existingColumns("listings")
	if err != nil {
		return err
	}
	for _, stmt := range missingColumnStatements(existing) {
		pw.logger.Info("[postgres] Schema migration: %s", stmt)
		if _, err := pw.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) existingColumns(table string) (map[string]bool, error) {
	rows, err := pw.db.Query(`
		SELECT column_name FROM information_schema.columns
		WHERE table_name = $1
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// WriteRun replaces run_date's rows with the given record set and updates
// the run ledger, all inside one transaction so a reader never observes the
// deleted-but-not-reinserted intermediate state.
func (pw *PostgresWriter) WriteRun(records []*models.Record, runDate string) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM listings WHERE run_date = $1", runDate); err != nil {
		return fmt.Errorf("postgres: delete run %s: %w", runDate, err)
	}

	const batchSize = 50
	var stored int64
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		n, err := insertBatch(tx, records[i:end], runDate)
		if err != nil {
			return err
		}
		stored += n
	}
	if dropped := int64(len(records)) - stored; dropped > 0 {
		pw.logger.Warn("[postgres] Run %s: %d records collided on the primary key and were not stored", runDate, dropped)
	}

	// The ledger records what the run actually stored, not what it was
	// handed: conflicting rows are skipped by the insert.
	if _, err := tx.Exec(`
		INSERT INTO runs (run_date, total_records, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_date) DO UPDATE
		SET total_records = EXCLUDED.total_records, updated_at = EXCLUDED.updated_at
	`, runDate, stored, time.Now().Format("2006-01-02T15:04:05")); err != nil {
		return fmt.Errorf("postgres: ledger upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit run %s: %w", runDate, err)
	}
	return nil
}

// insertBatch inserts one batch and returns the number of rows that
// actually landed, which can be lower than len(batch) when rows conflict.
func insertBatch(tx *sql.Tx, batch []*models.Record, runDate string) (int64, error) {
	cols := len(listingColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*cols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			runDate, r.Category, r.SubCategory, r.ListingID, r.Title, r.Address,
			r.PriceText, nullFloat(r.PriceYen), nullFloat(r.AreaSqm),
			nullFloat(r.AreaTsubo), nullFloat(r.UnitPricePerSqm),
			nullFloat(r.UnitPricePerTsubo), r.LayoutText, r.Detail.Encode(),
			r.DetailURL)
	}

	query := insertStatement(valueStrings)
	res, err := tx.Exec(query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: insert batch result: %w", err)
	}
	return n, nil
}

// Close closes the underlying connection pool.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchRunTotal reads the ledger row for runDate; used by callers that want
// to confirm what a run persisted.
func (pw *PostgresWriter) FetchRunTotal(runDate string) (int, error) {
	var total int
	err := pw.db.QueryRow("SELECT total_records FROM runs WHERE run_date = $1", runDate).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: fetch run %s: %w", runDate, err)
	}
	return total, nil
}

func createListingsSQL() string {
	var defs []string
	for _, c := range listingColumns {
		def := c.name + " " + c.sqlType
		if !c.nullable {
			def += " NOT NULL"
		}
		defs = append(defs, "\t\t\t"+def)
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS listings (
%s,
			PRIMARY KEY (run_date, sub_category, listing_id)
		)
	`, strings.Join(defs, ",\n"))
}

func createRunsSQL() string {
	return `
		CREATE TABLE IF NOT EXISTS runs (
			run_date      TEXT PRIMARY KEY,
			total_records INTEGER NOT NULL,
			updated_at    TEXT NOT NULL
		)
	`
}

// missingColumnStatements diffs the declared listings shape against the live
// column set and returns one additive ALTER per missing column. Columns are
// added nullable regardless of declaration: old rows have no value for them.
func missingColumnStatements(existing map[string]bool) []string {
	var stmts []string
	for _, c := range listingColumns {
		if existing[c.name] {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE listings ADD COLUMN %s %s", c.name, c.sqlType))
	}
	return stmts
}

func insertStatement(valueStrings []string) string {
	names := make([]string, len(listingColumns))
	for i, c := range listingColumns {
		names[i] = c.name
	}
	return fmt.Sprintf(`
		INSERT INTO listings (%s)
		VALUES %s
		ON CONFLICT (run_date, sub_category, listing_id) DO NOTHING
	`, strings.Join(names, ", "), strings.Join(valueStrings, ","))
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
