package gate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/contracts"
)

// Gate mirrors blacklist membership into Redis so other services can check a supplier
// with one SISMEMBER. Each member also has a hash carrying the entry details; the hash
// expires with the entry, which lets Blocked ignore suspensions whose removal was missed.
type Gate struct {
	rdb    redis.Cmdable
	prefix string
}

func New(rdb redis.Cmdable, prefix string) *Gate {
	if prefix == "" {
		prefix = "supplier"
	}
	return &Gate{rdb: rdb, prefix: prefix}
}

func (g *Gate) setKey() string {
	return g.prefix + ":blacklist"
}

func (g *Gate) entryKey(supplierID string) string {
	return g.prefix + ":blacklist:" + supplierID
}

func (g *Gate) Apply(ctx context.Context, t contracts.BlacklistTransition) error {
	if t.SupplierID == "" {
		return errors.New("transition without supplier id")
	}

	switch t.Action {
	case contracts.ActionBlacklisted:
		if t.ExpiresAt != nil && !t.ExpiresAt.After(time.Now()) {
			return g.clear(ctx, t.SupplierID)
		}
		_, err := g.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SAdd(ctx, g.setKey(), t.SupplierID)
			p.Del(ctx, g.entryKey(t.SupplierID))
			p.HSet(ctx, g.entryKey(t.SupplierID), entryFields(t))
			if t.ExpiresAt != nil {
				p.ExpireAt(ctx, g.entryKey(t.SupplierID), *t.ExpiresAt)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("gate blacklist %s: %w", t.SupplierID, err)
		}
		return nil
	case contracts.ActionRemoved, contracts.ActionExpired:
		return g.clear(ctx, t.SupplierID)
	default:
		return fmt.Errorf("unknown transition action %q", t.Action)
	}
}

func (g *Gate) clear(ctx context.Context, supplierID string) error {
	_, err := g.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, g.setKey(), supplierID)
		p.Del(ctx, g.entryKey(supplierID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("gate clear %s: %w", supplierID, err)
	}
	return nil
}

// Blocked reports whether the supplier is currently blacklisted. A set member whose
// detail hash has expired is pruned and reported as not blocked.
func (g *Gate) Blocked(ctx context.Context, supplierID string) (bool, error) {
	member, err := g.rdb.SIsMember(ctx, g.setKey(), supplierID).Result()
	if err != nil {
		return false, fmt.Errorf("gate lookup %s: %w", supplierID, err)
	}
	if !member {
		return false, nil
	}
	n, err := g.rdb.Exists(ctx, g.entryKey(supplierID)).Result()
	if err != nil {
		return false, fmt.Errorf("gate lookup %s: %w", supplierID, err)
	}
	if n == 0 {
		return false, g.clear(ctx, supplierID)
	}
	return true, nil
}

func (g *Gate) Members(ctx context.Context) ([]string, error) {
	members, err := g.rdb.SMembers(ctx, g.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("gate members: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func entryFields(t contracts.BlacklistTransition) map[string]any {
	fields := map[string]any{
		"severity": string(t.Severity),
		"reason":   t.Reason,
		"auto":     strconv.FormatBool(t.Auto),
		"at":       t.At.UTC().Format(time.RFC3339),
	}
	if t.ExpiresAt != nil {
		fields["expires_at"] = t.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return fields
}
