package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"pairchat/pkg/config"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

func newStore(t *testing.T) *store.Pebble {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, st store.Store, id string, age time.Duration) {
	t.Helper()
	m := models.Message{ID: id, ConversationID: "c1", SenderID: "alice",
		Body: "b", TS: time.Now().UTC().Add(-age).UnixNano()}
	raw, _ := json.Marshal(m)
	if _, err := st.Insert(models.TableMessages, raw); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func retCfg(period time.Duration, dryRun bool) config.RetentionConfig {
	return config.RetentionConfig{
		Enabled: true,
		Period:  config.Duration(period),
		DryRun:  dryRun,
	}
}

func TestSweepDeletesOnlyExpiredMessages(t *testing.T) {
	st := newStore(t)
	seed(t, st, "old-1", 48*time.Hour)
	seed(t, st, "old-2", 30*time.Hour)
	seed(t, st, "fresh", time.Hour)

	if err := sweep(st, retCfg(24*time.Hour, false)); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	_, total, err := st.Query(models.TableMessages, nil, store.Order{Field: "ts"}, 0, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 1 {
		t.Fatalf("%d messages left, want 1", total)
	}
	if _, err := st.GetByID(models.TableMessages, "fresh"); err != nil {
		t.Fatalf("fresh message was purged: %v", err)
	}
}

func TestSweepDryRunDeletesNothing(t *testing.T) {
	st := newStore(t)
	seed(t, st, "old", 48*time.Hour)

	if err := sweep(st, retCfg(24*time.Hour, true)); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := st.GetByID(models.TableMessages, "old"); err != nil {
		t.Fatalf("dry run deleted a message: %v", err)
	}
}

func TestSweepRespectsBatchSize(t *testing.T) {
	st := newStore(t)
	for i := 0; i < 5; i++ {
		seed(t, st, fmt.Sprintf("old-%d", i), 48*time.Hour)
	}

	cfg := retCfg(24*time.Hour, false)
	cfg.BatchSize = 2
	if err := sweep(st, cfg); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	_, total, err := st.Query(models.TableMessages, nil, store.Order{Field: "ts"}, 0, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 3 {
		t.Fatalf("%d messages left, want 3", total)
	}
}

func TestStartValidation(t *testing.T) {
	st := newStore(t)

	stop, err := Start(context.Background(), st, config.RetentionConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled retention: %v", err)
	}
	stop()

	if _, err := Start(context.Background(), st, retCfg(0, false)); err == nil {
		t.Fatal("zero period accepted")
	}

	cfg := retCfg(time.Hour, false)
	cfg.Cron = "not a cron"
	if _, err := Start(context.Background(), st, cfg); err == nil {
		t.Fatal("invalid cron accepted")
	}

	cfg.Cron = "*/5 * * * *"
	stop, err = Start(context.Background(), st, cfg)
	if err != nil {
		t.Fatalf("valid cron rejected: %v", err)
	}
	stop()
}
