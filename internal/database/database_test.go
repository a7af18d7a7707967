package database

import "testing"

func TestRebind(t *testing.T) {
	q := "UPDATE map_road SET crowd_level = ? WHERE id = ?"
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite query should be unchanged, got %q", got)
	}
	if got, want := Rebind(DriverPgx, q), "UPDATE map_road SET crowd_level = $1 WHERE id = $2"; got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db, DriverSQLite); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 applied migrations, got %d", applied)
	}

	if _, err := db.Exec("INSERT INTO map_road (id, path_points) VALUES (1, '0,0;0,1')"); err != nil {
		t.Errorf("map_road table not usable: %v", err)
	}
}
