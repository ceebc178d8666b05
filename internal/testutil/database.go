package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the test database. Tests that need MySQL are skipped when
// no server is listening on localhost:3306 with a 'transferflow_test' schema.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/transferflow_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the test tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"TransferItems", "Stores"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema the repositories expect.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createStoresTable := `
	CREATE TABLE IF NOT EXISTS Stores (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(255),
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	createTransferItemsTable := `
	CREATE TABLE IF NOT EXISTS TransferItems (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		source_store_id VARCHAR(36) NOT NULL,
		source_store_name VARCHAR(255) NOT NULL,
		destination_store_id VARCHAR(36),
		destination_store_name VARCHAR(255),
		brand VARCHAR(255) NOT NULL,
		gender VARCHAR(50) NOT NULL,
		category VARCHAR(100) NOT NULL,
		typology VARCHAR(100),
		color VARCHAR(100) NOT NULL,
		size VARCHAR(50) NOT NULL,
		quantity INT NOT NULL,
		description TEXT,
		article_code VARCHAR(100),
		status VARCHAR(20) NOT NULL,
		date_added DATETIME NOT NULL,
		date_requested DATETIME,
		date_received DATETIME,
		version INT NOT NULL DEFAULT 0,
		transitions JSON,
		INDEX idx_source_brand (source_store_id, brand),
		INDEX idx_status (status)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"Stores", createStoresTable},
		{"TransferItems", createTransferItemsTable},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
