package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"advocata/internal/domain"
	"advocata/internal/store"
)

// The test uses a single connection and a session-level search_path so
// the repos' own transactions land in the throwaway schema.
func TestPostgresIntegration_Appointments(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("ADVOCATA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("ADVOCATA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "advocata_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cleanupCtx)
	})

	if _, err := db.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("CREATE SCHEMA error: %v", err)
	}
	if _, err := db.NewRaw("SET search_path TO " + schema).Exec(ctx); err != nil {
		t.Fatalf("SET search_path error: %v", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("applyMigrations error: %v", err)
	}

	users := NewUserRepo(db)
	appts := NewAppointmentRepo(db)

	owner, err := users.Create(ctx, domain.User{Email: "owner@example.com", Name: "Owner"})
	if err != nil {
		t.Fatalf("user Create error: %v", err)
	}
	if owner.ID == uuid.Nil {
		t.Fatalf("expected generated user id")
	}

	_, err = users.Create(ctx, domain.User{Email: "owner@example.com", Name: "Dup"})
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("duplicate email err = %v, want ErrEmailTaken", err)
	}

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	first, err := appts.Create(ctx, domain.Appointment{
		UserID:    owner.ID,
		Title:     "first",
		StartTime: start,
		EndTime:   end,
		Status:    domain.StatusScheduled,
	}, false)
	if err != nil {
		t.Fatalf("first Create error: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("expected generated appointment id")
	}
	if !first.StartTime.Equal(start) || !first.EndTime.Equal(end) {
		t.Fatalf("range = [%v, %v), want [%v, %v)", first.StartTime, first.EndTime, start, end)
	}

	// straddling insert is rejected inside the locked transaction
	_, err = appts.Create(ctx, domain.Appointment{
		UserID:    owner.ID,
		Title:     "overlap",
		StartTime: start.Add(30 * time.Minute),
		EndTime:   end.Add(30 * time.Minute),
		Status:    domain.StatusScheduled,
	}, false)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("overlap err = %v, want ErrConflict", err)
	}

	// back-to-back booking shares the boundary instant and is accepted
	touching, err := appts.Create(ctx, domain.Appointment{
		UserID:    owner.ID,
		Title:     "touching",
		StartTime: end,
		EndTime:   end.Add(time.Hour),
		Status:    domain.StatusScheduled,
	}, false)
	if err != nil {
		t.Fatalf("touching Create error: %v", err)
	}

	// override skips the conflict check entirely
	doubled, err := appts.Create(ctx, domain.Appointment{
		UserID:    owner.ID,
		Title:     "deliberate double booking",
		StartTime: start,
		EndTime:   end,
		Status:    domain.StatusScheduled,
	}, true)
	if err != nil {
		t.Fatalf("override Create error: %v", err)
	}

	// a cancelled appointment no longer blocks its slot
	doubled.Status = domain.StatusCancelled
	if _, err := appts.Update(ctx, doubled); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	first.Status = domain.StatusCancelled
	if _, err := appts.Update(ctx, first); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	refilled, err := appts.Create(ctx, domain.Appointment{
		UserID:    owner.ID,
		Title:     "refill freed slot",
		StartTime: start,
		EndTime:   end,
		Status:    domain.StatusScheduled,
	}, false)
	if err != nil {
		t.Fatalf("refill Create error: %v", err)
	}

	rows, err := appts.ListScheduledStartingBetween(ctx, start.Add(-time.Hour), end.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListScheduledStartingBetween error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("scheduled rows = %d, want 2 (refill + touching)", len(rows))
	}
	if rows[0].ID != refilled.ID || rows[1].ID != touching.ID {
		t.Fatalf("unexpected ordering: %s, %s", rows[0].ID, rows[1].ID)
	}

	// dangling owner reference maps to not found
	_, err = appts.Create(ctx, domain.Appointment{
		UserID:    uuid.MustParse("00000000-0000-0000-0000-00000000dead"),
		Title:     "orphan",
		StartTime: start.AddDate(0, 0, 1),
		EndTime:   end.AddDate(0, 0, 1),
		Status:    domain.StatusScheduled,
	}, false)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("orphan err = %v, want ErrNotFound", err)
	}

	// deleting the owner cascades to their appointments
	if err := users.Delete(ctx, owner.ID); err != nil {
		t.Fatalf("user Delete error: %v", err)
	}
	if _, err := appts.GetByID(ctx, touching.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("post-cascade GetByID err = %v, want ErrNotFound", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
