package postgres

import (
	"strings"
	"testing"
)

func TestMigrationNames_Sorted(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %s before %s", names[i-1], names[i])
		}
	}
}

func TestRenderMigration_PrefixesEveryTable(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames: %v", err)
	}
	contents, err := migrationFiles.ReadFile("migrations/" + names[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	rendered := renderMigration(string(contents), "test_")
	if strings.Contains(rendered, prefixPlaceholder) {
		t.Error("placeholder left in rendered migration")
	}

	tables := NewTableNames("test_")
	for _, table := range []string{tables.Projects, tables.Actors, tables.Notes} {
		if !strings.Contains(rendered, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("rendered migration missing table %s", table)
		}
	}
}

func TestTableNames_All(t *testing.T) {
	tables := NewTableNames("dev_")
	got := tables.All()
	want := []string{"dev_notes", "dev_actors", "dev_projects", "dev_schema_migrations"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}
