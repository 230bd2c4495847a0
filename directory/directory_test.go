package directory

import (
	"context"
	"errors"
	"testing"

	"textstream/campaign-dispatch/campaign"
	"textstream/campaign-dispatch/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-test/deep"
)

func TestNewDirectory(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	if NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500}) == nil {
		t.Error("expected a directory, got nil")
	}
}

func TestDirectory_FetchRecipients(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WithArgs("tenant-1", "c1", "c2").
		WillReturnRows(contactRows().
			AddRow("c1", "Joana", "+44770001", []byte(`{"city":"Leeds"}`)).
			AddRow("c2", "Pedro", "+44770002", []byte(`{}`)))

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500})
	recipients, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	expected := []campaign.Recipient{
		{Id: "c1", Name: "Joana", Phone: "+44770001", Attributes: map[string]string{"city": "Leeds"}},
		{Id: "c2", Name: "Pedro", Phone: "+44770002", Attributes: map[string]string{}},
	}
	if diff := deep.Equal(expected, recipients); diff != nil {
		t.Error(diff)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDirectory_FetchRecipientsPagesLookups(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WithArgs("tenant-1", "c1", "c2").
		WillReturnRows(contactRows().
			AddRow("c1", "Joana", "+44770001", []byte(`{}`)).
			AddRow("c2", "Pedro", "+44770002", []byte(`{}`)))
	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WithArgs("tenant-1", "c3").
		WillReturnRows(contactRows().
			AddRow("c3", "Maria", "+44770003", []byte(`{}`)))

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 2})
	recipients, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c1", "c2", "c3"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(recipients) != 3 {
		t.Errorf("expected 3 recipients, got %d", len(recipients))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDirectory_FetchRecipientsDropsUnknownIds(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WithArgs("tenant-1", "c1", "missing").
		WillReturnRows(contactRows().
			AddRow("c1", "Joana", "+44770001", []byte(`{}`)))

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500})
	recipients, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c1", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(recipients) != 1 || recipients[0].Id != "c1" {
		t.Errorf("expected only contact c1, got %#v", recipients)
	}
}

func TestDirectory_FetchRecipientsPreservesRequestedOrder(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WithArgs("tenant-1", "c2", "c1").
		WillReturnRows(contactRows().
			AddRow("c1", "Joana", "+44770001", []byte(`{}`)).
			AddRow("c2", "Pedro", "+44770002", []byte(`{}`)))

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500})
	recipients, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c2", "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if recipients[0].Id != "c2" || recipients[1].Id != "c1" {
		t.Errorf("expected recipients in requested order, got %#v", recipients)
	}
}

func TestDirectory_FetchRecipientsQueryError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, phone, attributes FROM contacts").
		WillReturnError(errors.New("oops"))

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500})
	if _, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c1"}); err == nil {
		t.Error("expected an error, got nil")
	}
}

func TestDirectory_FetchRecipientsWithNoIds(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	dir := NewDirectory(db, &config.Config{DBDriver: config.Postgres, DirectoryPageSize: 500})
	recipients, err := dir.FetchRecipients(context.Background(), "tenant-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(recipients) != 0 {
		t.Errorf("expected no recipients, got %d", len(recipients))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDirectory_FetchRecipientsUsesMysqlPlaceholders(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT `id`, `name`, `phone`, `attributes` FROM `contacts` WHERE `tenant_id` = \\? AND `id` IN \\(\\?, \\?\\)").
		WithArgs("tenant-1", "c1", "c2").
		WillReturnRows(contactRows().
			AddRow("c1", "Joana", "+44770001", []byte(`{}`)).
			AddRow("c2", "Pedro", "+44770002", []byte(`{}`)))

	dir := NewDirectory(db, &config.Config{DBDriver: config.MySQL, DirectoryPageSize: 500})
	if _, err := dir.FetchRecipients(context.Background(), "tenant-1", []string{"c1", "c2"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "phone", "attributes"})
}
