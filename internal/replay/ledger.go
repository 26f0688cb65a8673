package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrAlreadyRedeemed = errors.New("order token already redeemed")

// grace keeps the record alive slightly past token expiry so a token
// can never be redeemed again while clocks disagree.
const grace = time.Minute

type Ledger interface {
	Redeem(ctx context.Context, signature string, expiresAt time.Time) error
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{
		client: client,
		now:    time.Now,
	}
}

// RedisLedger records redeemed token signatures with SET NX.
type RedisLedger struct {
	client *redis.Client
	now    func() time.Time
}

func (l *RedisLedger) Redeem(ctx context.Context, signature string, expiresAt time.Time) error {
	if signature == "" {
		return errors.New("empty signature")
	}
	ttl := expiresAt.Sub(l.now()) + grace
	if ttl < grace {
		ttl = grace
	}

	ok, err := l.client.SetNX(ctx, ledgerKey(signature), l.now().Unix(), ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return ErrAlreadyRedeemed
	}
	return nil
}

func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func ledgerKey(signature string) string {
	return fmt.Sprintf("order-token:%s", signature)
}
