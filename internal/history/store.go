package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicetrans/internal/logging"
	"voicetrans/internal/storage"
	"voicetrans/internal/textrepair"
	"voicetrans/internal/transcript"
)

const (
	// DefaultKey is the substrate key holding the collection.
	DefaultKey = "voice-translate-history"
	// DefaultMaxItems bounds the collection; older items are evicted first.
	DefaultMaxItems = 50

	idSuffixLen = 9
)

// Store is the history collection on a substrate. Callers issue operations
// sequentially; writers in other processes are not coordinated.
type Store struct {
	substrate storage.Substrate
	key       string
	maxItems  int
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the substrate key.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithMaxItems overrides the collection bound.
func WithMaxItems(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for item IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Store on substrate.
func New(substrate storage.Substrate, opts ...Option) *Store {
	s := &Store{
		substrate: substrate,
		key:       DefaultKey,
		maxItems:  DefaultMaxItems,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "history")
	return s
}

// Key returns the substrate key holding the collection.
func (s *Store) Key() string { return s.key }

// MaxItems returns the collection bound.
func (s *Store) MaxItems() int { return s.maxItems }

// Save records result as the newest item. Results without a complete AI
// response are skipped. If the full collection cannot be written, the stored
// collection is dropped and only the new item is kept.
func (s *Store) Save(ctx context.Context, result transcript.Result) (transcript.Item, Outcome) {
	ctx = context.WithoutCancel(ctx)
	if !result.Storable() {
		s.logger.Info("history save skipped",
			logging.String(logging.FieldEventType, "history_save_skipped"),
			logging.String("reason", "incomplete ai response"),
		)
		return transcript.Item{}, Outcome{Status: StatusSkipped}
	}

	item := normalize(transcript.Item{ID: s.newID(), Result: result})
	existing, _ := s.load(ctx)

	items := make([]transcript.Item, 0, len(existing)+1)
	items = append(items, item)
	items = append(items, existing...)
	if len(items) > s.maxItems {
		items = items[:s.maxItems]
	}

	err := s.write(ctx, items)
	if err == nil {
		s.logger.Info("saved item",
			logging.String(logging.FieldItemID, item.ID),
			logging.Int("items", len(items)),
		)
		return item, ok()
	}

	logging.WarnWithContext(s.logger, "history write failed; retrying with only the new item", "history_write_failed",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int("items", len(items)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "older history items are discarded"),
	)
	if delErr := s.substrate.Delete(ctx, s.key); delErr != nil {
		s.logger.Debug("history reset failed", logging.Error(delErr))
	}
	if retryErr := s.write(ctx, []transcript.Item{item}); retryErr != nil {
		logging.ErrorWithContext(s.logger, "history save failed", "history_save_failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(retryErr),
			logging.String(logging.FieldErrorHint, "check storage capacity with 'voicetrans usage'"),
		)
		return item, failed(errors.Join(err, retryErr))
	}
	return item, Outcome{Status: StatusRecovered, Err: err}
}

// List returns the collection newest first. Returned items are normalized
// copies; the persisted payload is only rewritten when it had to be cleaned.
func (s *Store) List(ctx context.Context) ([]transcript.Item, Outcome) {
	items, outcome := s.load(context.WithoutCancel(ctx))
	out := make([]transcript.Item, 0, len(items))
	for _, item := range items {
		out = append(out, normalize(item))
	}
	return out, outcome
}

// Get returns the item with id.
func (s *Store) Get(ctx context.Context, id string) (transcript.Item, bool) {
	items, _ := s.List(ctx)
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return transcript.Item{}, false
}

// Count returns the number of valid items.
func (s *Store) Count(ctx context.Context) int {
	items, _ := s.load(context.WithoutCancel(ctx))
	return len(items)
}

// Delete removes the item with id. A missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) Outcome {
	ctx = context.WithoutCancel(ctx)
	items, outcome := s.load(ctx)
	if outcome.Failed() && items == nil {
		return outcome
	}

	index := -1
	for i, item := range items {
		if item.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return outcome
	}

	remaining := make([]transcript.Item, 0, len(items)-1)
	remaining = append(remaining, items[:index]...)
	remaining = append(remaining, items[index+1:]...)
	if err := s.write(ctx, remaining); err != nil {
		logging.WarnWithContext(s.logger, "history delete failed", "history_delete_failed",
			logging.String(logging.FieldItemID, id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item remains in history"),
		)
		return failed(err)
	}
	s.logger.Info("deleted item", logging.String(logging.FieldItemID, id))
	return ok()
}

// Clear removes every item.
func (s *Store) Clear(ctx context.Context) Outcome {
	if err := s.substrate.Delete(context.WithoutCancel(ctx), s.key); err != nil {
		logging.WarnWithContext(s.logger, "history clear failed", "history_clear_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history items remain"),
		)
		return failed(err)
	}
	s.logger.Info("cleared history")
	return ok()
}

// load reads the persisted collection, dropping invalid items and wiping a
// payload that is not a JSON array. Items are returned as stored.
func (s *Store) load(ctx context.Context) ([]transcript.Item, Outcome) {
	raw, found, err := s.substrate.Get(ctx, s.key)
	if err != nil {
		logging.WarnWithContext(s.logger, "history read failed", "history_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shown as empty"),
		)
		return nil, failed(err)
	}
	if !found {
		return nil, ok()
	}

	var entries []json.RawMessage
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &entries) != nil {
		logging.WarnWithContext(s.logger, "history payload corrupt; wiping", "history_corrupt",
			logging.String(logging.FieldStorageKey, s.key),
			logging.Int("payload_bytes", len(raw)),
			logging.String(logging.FieldImpact, "all history items discarded"),
		)
		if delErr := s.substrate.Delete(ctx, s.key); delErr != nil {
			return nil, failed(fmt.Errorf("wipe corrupt history: %w", delErr))
		}
		return nil, Outcome{Status: StatusHealed}
	}

	items := make([]transcript.Item, 0, len(entries))
	for _, entry := range entries {
		var item transcript.Item
		if err := json.Unmarshal(entry, &item); err != nil || !item.Valid() {
			continue
		}
		items = append(items, item)
	}
	dropped := len(entries) - len(items)
	if dropped == 0 {
		return items, ok()
	}

	s.logger.Info("dropped malformed history items",
		logging.String(logging.FieldEventType, "history_items_dropped"),
		logging.Int("dropped", dropped),
		logging.Int("kept", len(items)),
	)
	if err := s.write(ctx, items); err != nil {
		logging.WarnWithContext(s.logger, "history rewrite failed", "history_rewrite_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "malformed items remain persisted"),
		)
		return items, failed(err)
	}
	return items, Outcome{Status: StatusHealed}
}

func (s *Store) write(ctx context.Context, items []transcript.Item) error {
	if items == nil {
		items = []transcript.Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.substrate.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// newID combines the creation time with a random suffix so rapid saves
// within one millisecond stay distinct.
func (s *Store) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
	return fmt.Sprintf("%d_%s", s.now().UnixMilli(), suffix)
}

// normalize returns a copy of item with NFC text fields. The AI response is
// copied so callers never share it with the stored value.
func normalize(item transcript.Item) transcript.Item {
	item.AudioInfo.FileName = textrepair.NormalizeText(item.AudioInfo.FileName)
	if item.AIResponse != nil {
		ai := *item.AIResponse
		ai.Pinyin = textrepair.NormalizeText(ai.Pinyin)
		ai.Chinese = textrepair.NormalizeText(ai.Chinese)
		ai.Vietnamese = textrepair.NormalizeText(ai.Vietnamese)
		item.AIResponse = &ai
	}
	return item
}
