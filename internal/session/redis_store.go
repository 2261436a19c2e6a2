package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// RedisStore keeps session state in Redis under fixed per-session keys.
// Every write refreshes the key TTL so a payment redirect round trip does
// not lose the pending booking.
type RedisStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewRedisStore returns a RedisStore with the given session TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now, newID: uuid.NewString}
}

func cartKey(sid string) string    { return "bk:" + sid + ":cart" }
func itemsKey(sid string) string   { return "bk:" + sid + ":items" }
func receiptKey(sid string) string { return "bk:" + sid + ":receipt" }

func (s *RedisStore) SetCart(ctx context.Context, sessionID string, sel model.CartSelection) (model.CartSelection, error) {
	if sessionID == "" {
		return model.CartSelection{}, ErrNoSession
	}
	sel, err := Derive(sel, s.now())
	if err != nil {
		return model.CartSelection{}, err
	}
	bs, err := json.Marshal(sel)
	if err != nil {
		return model.CartSelection{}, err
	}
	if err := s.rdb.Set(ctx, cartKey(sessionID), bs, s.ttl).Err(); err != nil {
		return model.CartSelection{}, fmt.Errorf("store cart: %w", err)
	}
	return sel, nil
}

func (s *RedisStore) GetCart(ctx context.Context, sessionID string) (*model.CartSelection, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	bs, err := s.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var sel model.CartSelection
	if err := json.Unmarshal(bs, &sel); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &sel, nil
}

func (s *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}

func (s *RedisStore) AddItem(ctx context.Context, sessionID string, item model.MultiCartItem) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}
	item, err := deriveItem(item)
	if err != nil {
		return "", err
	}
	item.ID = s.newID()
	item.AddedAt = s.now().UTC()
	bs, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	key := itemsKey(sessionID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, bs)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store cart item: %w", err)
	}
	return item.ID, nil
}

// rawItems returns the stored items alongside their raw encodings, which
// LREM needs to delete an exact element.
func (s *RedisStore) rawItems(ctx context.Context, sessionID string) ([]model.MultiCartItem, []string, error) {
	raws, err := s.rdb.LRange(ctx, itemsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("load cart items: %w", err)
	}
	items := make([]model.MultiCartItem, 0, len(raws))
	kept := make([]string, 0, len(raws))
	for _, raw := range raws {
		var it model.MultiCartItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			continue
		}
		items = append(items, it)
		kept = append(kept, raw)
	}
	return items, kept, nil
}

func (s *RedisStore) RemoveItem(ctx context.Context, sessionID, id string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	items, raws, err := s.rawItems(ctx, sessionID)
	if err != nil {
		return err
	}
	for i, it := range items {
		if it.ID == id {
			return s.rdb.LRem(ctx, itemsKey(sessionID), 1, raws[i]).Err()
		}
	}
	return nil
}

func (s *RedisStore) Items(ctx context.Context, sessionID string) ([]model.MultiCartItem, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	items, _, err := s.rawItems(ctx, sessionID)
	return items, err
}

func (s *RedisStore) Contains(ctx context.Context, sessionID, slug, date string, adults, children int) (bool, error) {
	items, err := s.Items(ctx, sessionID)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.SameSelection(slug, date, adults, children) {
			return true, nil
		}
	}
	return false, nil
}

func (s *RedisStore) SaveReceipt(ctx context.Context, sessionID string, r model.Receipt) error {
	if sessionID == "" {
		return ErrNoSession
	}
	bs, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, receiptKey(sessionID), bs, s.ttl).Err()
}

func (s *RedisStore) decodeReceipt(bs []byte, err error) (*model.Receipt, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	var r model.Receipt
	if err := json.Unmarshal(bs, &r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}

func (s *RedisStore) ConsumeReceipt(ctx context.Context, sessionID string) (*model.Receipt, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	return s.decodeReceipt(s.rdb.GetDel(ctx, receiptKey(sessionID)).Bytes())
}

func (s *RedisStore) PeekReceipt(ctx context.Context, sessionID string) (*model.Receipt, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	return s.decodeReceipt(s.rdb.Get(ctx, receiptKey(sessionID)).Bytes())
}

func (s *RedisStore) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	return s.rdb.Del(ctx, cartKey(sessionID), itemsKey(sessionID)).Err()
}
