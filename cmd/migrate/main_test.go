package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"

	appmigrations "github.com/wolfman30/clinic-booking/migrations"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	upErr   error
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error { f.calls = append(f.calls, "up"); return f.upErr }
func (f *fakeMigrator) Steps(n int) error { f.calls = append(f.calls, "steps"); f.steps = n; return nil }
func (f *fakeMigrator) Force(version int) error { f.calls = append(f.calls, "force"); f.forced = version; return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, false, f.verErr
}

func TestApplyCommands(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := apply(m, nil); err != nil {
		t.Fatalf("up with no change should succeed: %v", err)
	}
	if err := apply(m, []string{"down", "2"}); err != nil {
		t.Fatalf("down: %v", err)
	}
	if m.steps != -2 {
		t.Fatalf("expected -2 steps, got %d", m.steps)
	}
	if err := apply(m, []string{"force", "3"}); err != nil {
		t.Fatalf("force: %v", err)
	}
	if m.forced != 3 {
		t.Fatalf("expected forced version 3, got %d", m.forced)
	}
	m.verErr = migrate.ErrNilVersion
	if err := apply(m, []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	m := &fakeMigrator{}
	for _, args := range [][]string{{"down"}, {"force", "x"}, {"sideways"}} {
		if err := apply(m, args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(appmigrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	ups, downs := 0, 0
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}
}
