package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// SQLiteStore persists records in a sqlite table with write-through upserts.
type SQLiteStore struct {
	db  *sqlx.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS phone_lookups (
	phone              TEXT PRIMARY KEY,
	phone_number       TEXT NOT NULL DEFAULT '',
	report_date        TEXT NOT NULL DEFAULT '',
	line_type          TEXT NOT NULL DEFAULT '',
	phone_company      TEXT NOT NULL DEFAULT '',
	phone_location     TEXT NOT NULL DEFAULT '',
	fake_number        TEXT NOT NULL DEFAULT '',
	fake_number_reason TEXT NOT NULL DEFAULT '',
	error_code         TEXT NOT NULL DEFAULT '',
	error_description  TEXT NOT NULL DEFAULT '',
	fetched_at         TEXT NOT NULL
);
`

const sqliteUpsert = `
INSERT INTO phone_lookups (
	phone, phone_number, report_date, line_type, phone_company, phone_location,
	fake_number, fake_number_reason, error_code, error_description, fetched_at
) VALUES (
	:phone, :phone_number, :report_date, :line_type, :phone_company, :phone_location,
	:fake_number, :fake_number_reason, :error_code, :error_description, :fetched_at
)
ON CONFLICT(phone) DO UPDATE SET
	phone_number       = excluded.phone_number,
	report_date        = excluded.report_date,
	line_type          = excluded.line_type,
	phone_company      = excluded.phone_company,
	phone_location     = excluded.phone_location,
	fake_number        = excluded.fake_number,
	fake_number_reason = excluded.fake_number_reason,
	error_code         = excluded.error_code,
	error_description  = excluded.error_description,
	fetched_at         = excluded.fetched_at
`

type lookupRow struct {
	Phone            string `db:"phone"`
	PhoneNumber      string `db:"phone_number"`
	ReportDate       string `db:"report_date"`
	LineType         string `db:"line_type"`
	PhoneCompany     string `db:"phone_company"`
	PhoneLocation    string `db:"phone_location"`
	FakeNumber       string `db:"fake_number"`
	FakeNumberReason string `db:"fake_number_reason"`
	ErrorCode        string `db:"error_code"`
	ErrorDescription string `db:"error_description"`
	FetchedAt        string `db:"fetched_at"`
}

func (r lookupRow) record() models.ValidationRecord {
	return models.ValidationRecord{
		PhoneNumber:      r.PhoneNumber,
		ReportDate:       r.ReportDate,
		LineType:         r.LineType,
		PhoneCompany:     r.PhoneCompany,
		PhoneLocation:    r.PhoneLocation,
		FakeNumber:       r.FakeNumber,
		FakeNumberReason: r.FakeNumberReason,
		ErrorCode:        r.ErrorCode,
		ErrorDescription: r.ErrorDescription,
	}
}

// NewSQLiteStore opens (and creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: time.Now,
	}, nil
}

// Load reads every stored record.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]models.ValidationRecord, error) {
	var rows []lookupRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM phone_lookups"); err != nil {
		return nil, fmt.Errorf("load phone lookups: %w", err)
	}

	out := make(map[string]models.ValidationRecord, len(rows))
	for _, r := range rows {
		out[r.Phone] = r.record()
	}

	return out, nil
}

// Save upserts rec immediately.
func (s *SQLiteStore) Save(ctx context.Context, key string, rec models.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := lookupRow{
		Phone:            key,
		PhoneNumber:      rec.PhoneNumber,
		ReportDate:       rec.ReportDate,
		LineType:         rec.LineType,
		PhoneCompany:     rec.PhoneCompany,
		PhoneLocation:    rec.PhoneLocation,
		FakeNumber:       rec.FakeNumber,
		FakeNumberReason: rec.FakeNumberReason,
		ErrorCode:        rec.ErrorCode,
		ErrorDescription: rec.ErrorDescription,
		FetchedAt:        s.now().UTC().Format(time.RFC3339),
	}

	if _, err := s.db.NamedExecContext(ctx, sqliteUpsert, row); err != nil {
		return fmt.Errorf("upsert phone lookup: %w", err)
	}

	return nil
}

// Flush is a no-op; Save writes through.
func (s *SQLiteStore) Flush(_ context.Context) error { return nil }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
