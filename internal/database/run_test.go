package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestRunRendersTextTable(t *testing.T) {
	conn, mock := newSQLMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT Name FROM Artist LIMIT 3;")).WillReturnRows(
		sqlmock.NewRows([]string{"Name"}).
			AddRow("AC/DC").
			AddRow("Accept").
			AddRow([]byte("Aerosmith")),
	)

	result, err := conn.Run(context.Background(), "SELECT Name FROM Artist LIMIT 3;")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{"Name", "AC/DC", "Accept", "Aerosmith", "(3 rows)"} {
		if !strings.Contains(result, want) {
			t.Fatalf("result missing %q:\n%s", want, result)
		}
	}
	assertSQLMock(t, mock)
}

func TestRunRendersNullAndEmptyResult(t *testing.T) {
	conn, mock := newSQLMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM customer")).WillReturnRows(
		sqlmock.NewRows([]string{"email"}).AddRow(nil),
	)
	result, err := conn.Run(context.Background(), "SELECT email FROM customer")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result, "NULL") {
		t.Fatalf("result missing NULL marker:\n%s", result)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM customer WHERE 1=0")).WillReturnRows(
		sqlmock.NewRows([]string{"email"}),
	)
	result, err = conn.Run(context.Background(), "SELECT email FROM customer WHERE 1=0")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "(0 rows)" {
		t.Fatalf("result = %q", result)
	}
	assertSQLMock(t, mock)
}

func TestRunCapsRows(t *testing.T) {
	conn, mock := newSQLMockConn(t)
	conn.MaxRows = 2

	rows := sqlmock.NewRows([]string{"n"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT n FROM numbers")).WillReturnRows(rows)

	result, err := conn.Run(context.Background(), "SELECT n FROM numbers")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result, "(first 2 rows)") {
		t.Fatalf("result missing truncation marker:\n%s", result)
	}
	assertSQLMock(t, mock)
}

func TestRunSurfacesEngineMessageAsExecutionError(t *testing.T) {
	conn, mock := newSQLMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT Foo FROM Artist")).
		WillReturnError(errors.New(`column "Foo" does not exist`))

	_, err := conn.Run(context.Background(), "SELECT Foo FROM Artist")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(execErr.Error(), `column "Foo" does not exist`) {
		t.Fatalf("ExecutionError message = %q", execErr.Error())
	}
	assertSQLMock(t, mock)
}

func newSQLMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewConn(db), mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
