// Package sequence allocates stable human-readable identifiers shaped
// PREFIX-YEAR-BASE36SEQ, one yearly counter per entity family.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Family struct {
	Name   string
	Prefix string
}

var (
	FamilyBooking     = Family{Name: "booking", Prefix: "BKG"}
	FamilyPayment     = Family{Name: "payment", Prefix: "PAY"}
	FamilyExtraCharge = Family{Name: "extra_charge", Prefix: "ECH"}
)

// Store is the persistent counter-and-existence pair behind the allocator.
type Store interface {
	Next(ctx context.Context, family, prefix string, year int) (int64, error)
	Exists(ctx context.Context, family, ref string) (bool, error)
}

// Locker serializes allocations for one (family, year). Implementations run
// the critical section even when the lock cannot be acquired: the lock is an
// optimization, the collision-retry loop below is the correctness mechanism.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

const (
	seqWidth   = 7
	maxRetries = 5
)

type Allocator struct {
	store   Store
	locker  Locker
	now     func() time.Time
	loggerf func(format string, args ...interface{})
}

func New(store Store, locker Locker, loggerf func(format string, args ...interface{})) *Allocator {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Allocator{
		store:   store,
		locker:  locker,
		now:     time.Now,
		loggerf: loggerf,
	}
}

// Allocate produces the next free reference for the family. On repeated
// collisions it falls back to a time-derived sequence: forward progress wins
// over strict sequentiality, and the residual same-nanosecond collision risk
// surfaces as a unique-index violation the caller's insert turns into a
// retryable error, never a silent duplicate.
func (a *Allocator) Allocate(ctx context.Context, fam Family) (string, error) {
	year := a.now().UTC().Year()
	key := fmt.Sprintf("seq:%s:%d", fam.Name, year)

	var ref string
	err := a.locker.WithLock(ctx, key, func() error {
		for attempt := 0; attempt < maxRetries; attempt++ {
			seq, err := a.store.Next(ctx, fam.Name, fam.Prefix, year)
			if err != nil {
				return err
			}
			cand := Format(fam.Prefix, year, seq)
			taken, err := a.store.Exists(ctx, fam.Name, cand)
			if err != nil {
				return err
			}
			if !taken {
				ref = cand
				return nil
			}
			a.loggerf("id_alloc collision family=%s ref=%s attempt=%d", fam.Name, cand, attempt)
		}

		ref = Format(fam.Prefix, year, a.now().UnixNano())
		a.loggerf("id_alloc fallback family=%s ref=%s", fam.Name, ref)
		return nil
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// Format renders PREFIX-YYYY-XXXXXXX with the sequence in zero-padded
// uppercase base-36, at least seqWidth characters.
func Format(prefix string, year int, seq int64) string {
	s := strings.ToUpper(strconv.FormatInt(seq, 36))
	if len(s) < seqWidth {
		s = strings.Repeat("0", seqWidth-len(s)) + s
	}
	return fmt.Sprintf("%s-%04d-%s", prefix, year, s)
}
