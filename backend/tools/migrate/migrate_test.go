package migrate

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func TestParseMigrationFilename(t *testing.T) {
	cases := []struct {
		in      string
		version string
		name    string
		ok      bool
	}{
		{"0001_schema.sql", "0001", "schema", true},
		{"0002_ingestion_seq.sql", "0002", "ingestion_seq", true},
		{"1_bad.sql", "", "", false},
		{"0003_notes.txt", "", "", false},
	}
	for _, tc := range cases {
		v, n, ok := parseMigrationFilename(tc.in)
		if v != tc.version || n != tc.name || ok != tc.ok {
			t.Fatalf("%s: got (%q, %q, %v)", tc.in, v, n, ok)
		}
	}
}

func TestEmbeddedOrdered(t *testing.T) {
	all, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Version >= all[i].Version {
			t.Fatalf("migrations out of order: %s before %s", all[i-1].Version, all[i].Version)
		}
	}
}

func TestRunSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	all, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001"))

	for _, m := range all[1:] {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(m.Body)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
			WithArgs(m.Version, m.Name).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}

	done, err := Run(context.Background(), db, zap.NewNop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(done) != len(all)-1 {
		t.Fatalf("expected %d applied, got %d", len(all)-1, len(done))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
