package history_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"voicetrans/internal/history"
	"voicetrans/internal/storage"
	"voicetrans/internal/testsupport"
	"voicetrans/internal/transcript"
)

func rawItems(t *testing.T, sub storage.Substrate) []map[string]any {
	t.Helper()
	raw, found, err := sub.Get(context.Background(), history.DefaultKey)
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if !found {
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("raw payload is not an array: %v", err)
	}
	return items
}

func TestSaveKeepsNewestItemsWithinBound(t *testing.T) {
	ctx := context.Background()
	store := history.New(storage.NewMemory(0))

	for i := 0; i < 60; i++ {
		if _, outcome := store.Save(ctx, testsupport.SampleResult(fmt.Sprintf("result-%d", i))); outcome.Status != history.StatusOK {
			t.Fatalf("save %d: %v", i, outcome.Status)
		}
	}

	items, outcome := store.List(ctx)
	if outcome.Status != history.StatusOK {
		t.Fatalf("list outcome = %v", outcome.Status)
	}
	if len(items) != history.DefaultMaxItems {
		t.Fatalf("len = %d, want %d", len(items), history.DefaultMaxItems)
	}
	for i, item := range items {
		want := fmt.Sprintf("result-%d", 59-i)
		if item.Message != want {
			t.Fatalf("items[%d].Message = %q, want %q", i, item.Message, want)
		}
	}
}

func TestSaveHonorsConfiguredBound(t *testing.T) {
	ctx := context.Background()
	store := history.New(storage.NewMemory(0), history.WithMaxItems(3))
	for i := 0; i < 5; i++ {
		store.Save(ctx, testsupport.SampleResult(fmt.Sprintf("r%d", i)))
	}
	if got := store.Count(ctx); got != 3 {
		t.Fatalf("Count = %d, want 3", got)
	}
}

func TestSaveSkipsIncompleteResults(t *testing.T) {
	ctx := context.Background()
	sub := storage.NewMemory(0)
	store := history.New(sub)
	store.Save(ctx, testsupport.SampleResult("kept"))
	before, _, _ := sub.Get(ctx, history.DefaultKey)

	missing := testsupport.SampleResult("no ai")
	missing.AIResponse = nil
	blank := testsupport.SampleResult("blank")
	blank.AIResponse.Vietnamese = "  "

	for _, result := range []transcript.Result{missing, blank} {
		item, outcome := store.Save(ctx, result)
		if outcome.Status != history.StatusSkipped {
			t.Fatalf("outcome = %v, want skipped", outcome.Status)
		}
		if item.ID != "" {
			t.Fatalf("skipped save returned id %q", item.ID)
		}
	}

	after, _, _ := sub.Get(ctx, history.DefaultKey)
	if before != after {
		t.Fatalf("collection changed by skipped saves")
	}
}

func TestListSelfHealsMalformedItems(t *testing.T) {
	ctx := context.Background()
	sub := storage.NewMemory(0)
	seed := `[
		{"id":"1_good","message":"ok","audioInfo":{"fileName":"a.mp3"},"aiResponse":{"pinyin":"nǐ","china":"你","vietnamese":"bạn"}},
		{"id":"2_bad","message":"bad","audioInfo":{"fileName":"b.mp3"},"aiResponse":{"china":"你","vietnamese":"bạn"}}
	]`
	if err := sub.Set(ctx, history.DefaultKey, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := history.New(sub)
	items, outcome := store.List(ctx)
	if outcome.Status != history.StatusHealed {
		t.Fatalf("outcome = %v, want healed", outcome.Status)
	}
	if len(items) != 1 || items[0].ID != "1_good" {
		t.Fatalf("items = %+v", items)
	}

	raw := rawItems(t, sub)
	if len(raw) != 1 || raw[0]["id"] != "1_good" {
		t.Fatalf("raw collection not rewritten: %+v", raw)
	}
}

func TestListWipesCorruptPayload(t *testing.T) {
	for _, payload := range []string{`{"not":"an array"}`, `garbage`, `null`} {
		ctx := context.Background()
		sub := storage.NewMemory(0)
		if err := sub.Set(ctx, history.DefaultKey, payload); err != nil {
			t.Fatalf("seed: %v", err)
		}

		items, outcome := history.New(sub).List(ctx)
		if len(items) != 0 {
			t.Fatalf("%s: items = %+v", payload, items)
		}
		if outcome.Status != history.StatusHealed {
			t.Fatalf("%s: outcome = %v, want healed", payload, outcome.Status)
		}
		if _, found, _ := sub.Get(ctx, history.DefaultKey); found {
			t.Fatalf("%s: corrupt payload not wiped", payload)
		}
	}
}

func TestListEmptyWhenAbsent(t *testing.T) {
	items, outcome := history.New(storage.NewMemory(0)).List(context.Background())
	if len(items) != 0 || outcome.Status != history.StatusOK {
		t.Fatalf("List = %v %v", items, outcome.Status)
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := history.New(storage.NewMemory(0))
	first, _ := store.Save(ctx, testsupport.SampleResult("first"))
	second, _ := store.Save(ctx, testsupport.SampleResult("second"))

	if outcome := store.Delete(ctx, "does-not-exist"); outcome.Status != history.StatusOK {
		t.Fatalf("delete missing = %v", outcome.Status)
	}
	if got := store.Count(ctx); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	if outcome := store.Delete(ctx, first.ID); outcome.Status != history.StatusOK {
		t.Fatalf("delete = %v", outcome.Status)
	}
	if _, found := store.Get(ctx, first.ID); found {
		t.Fatal("deleted item still present")
	}
	if item, found := store.Get(ctx, second.ID); !found || item.Message != "second" {
		t.Fatalf("Get(second) = %+v %v", item, found)
	}

	if outcome := store.Clear(ctx); outcome.Status != history.StatusOK {
		t.Fatalf("clear = %v", outcome.Status)
	}
	items, _ := store.List(ctx)
	if len(items) != 0 {
		t.Fatalf("items after clear = %+v", items)
	}
}

func TestSaveFallsBackToSingleItemWhenFull(t *testing.T) {
	ctx := context.Background()
	probe := storage.NewMemory(0)
	history.New(probe).Save(ctx, testsupport.SampleResult("x"))
	single, _, _ := probe.Get(ctx, history.DefaultKey)
	oneItem := storage.EntrySize(history.DefaultKey, single)

	// Room for one item but not two.
	sub := storage.NewMemory(oneItem + oneItem/2)
	store := history.New(sub)
	if _, outcome := store.Save(ctx, testsupport.SampleResult("x")); outcome.Status != history.StatusOK {
		t.Fatalf("first save = %v", outcome.Status)
	}
	latest, outcome := store.Save(ctx, testsupport.SampleResult("y"))
	if outcome.Status != history.StatusRecovered || outcome.Err == nil {
		t.Fatalf("second save = %+v, want recovered with cause", outcome)
	}

	items, _ := store.List(ctx)
	if len(items) != 1 || items[0].ID != latest.ID {
		t.Fatalf("items = %+v, want only the newest", items)
	}
}

func TestSaveReportsFailureWithoutPanicking(t *testing.T) {
	ctx := context.Background()
	store := history.New(storage.NewMemory(64))

	_, outcome := store.Save(ctx, testsupport.SampleResult("too big"))
	if !outcome.Failed() || outcome.Err == nil {
		t.Fatalf("outcome = %+v, want failed", outcome)
	}
	items, _ := store.List(ctx)
	if len(items) != 0 {
		t.Fatalf("items = %+v", items)
	}
}

func TestSaveAndListNormalizeText(t *testing.T) {
	const (
		decomposed = "Vie\u0323\u0302t"
		composed   = "Vi\u1ec7t"
	)
	ctx := context.Background()
	sub := storage.NewMemory(0)
	store := history.New(sub)

	result := testsupport.SampleResult("nfc")
	result.AudioInfo.FileName = decomposed + ".mp3"
	result.AIResponse.Vietnamese = decomposed
	saved, _ := store.Save(ctx, result)

	if saved.AudioInfo.FileName != composed+".mp3" || saved.AIResponse.Vietnamese != composed {
		t.Fatalf("saved = %q %q", saved.AudioInfo.FileName, saved.AIResponse.Vietnamese)
	}
	if result.AudioInfo.FileName != decomposed+".mp3" || result.AIResponse.Vietnamese != decomposed {
		t.Fatal("Save mutated its input")
	}

	// Decomposed text written by another writer is normalized on read only.
	seed := `[{"id":"1_raw","audioInfo":{"fileName":"` + decomposed + `.mp3"},"aiResponse":{"pinyin":"p","china":"中","vietnamese":"` + decomposed + `"}}]`
	if err := sub.Set(ctx, history.DefaultKey, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	items, _ := store.List(ctx)
	if len(items) != 1 || items[0].AIResponse.Vietnamese != composed || items[0].AudioInfo.FileName != composed+".mp3" {
		t.Fatalf("items = %+v", items)
	}
	if raw, _, _ := sub.Get(ctx, history.DefaultKey); raw != seed {
		t.Fatal("List rewrote a valid collection")
	}
}

func TestIDsUniqueUnderRapidSaves(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1700000000000)
	store := history.New(storage.NewMemory(0), history.WithClock(func() time.Time { return fixed }))

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		item, _ := store.Save(ctx, testsupport.SampleResult("same instant"))
		if seen[item.ID] {
			t.Fatalf("duplicate id %q", item.ID)
		}
		seen[item.ID] = true
		if len(item.ID) != len("1700000000000_")+9 {
			t.Fatalf("unexpected id shape %q", item.ID)
		}
	}
}

func TestStoreOnSQLiteSubstrate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sub := testsupport.MustOpenSubstrate(t, cfg)
	store := history.New(sub, history.WithKey(cfg.History.Key))

	ctx := context.Background()
	saved, outcome := store.Save(ctx, testsupport.SampleResult("persisted"))
	if outcome.Status != history.StatusOK {
		t.Fatalf("save = %+v", outcome)
	}
	item, found := store.Get(ctx, saved.ID)
	if !found || item.AIResponse.Chinese != "你好" {
		t.Fatalf("Get = %+v %v", item, found)
	}
}
