package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/lookup"
)

func TestLookup_Hit(t *testing.T) {
	c := newTestCache(t, 5*24*time.Hour)
	c.Replace(map[string][]byte{
		testKey.String(): mustPayload(t, fixedNow.Add(-time.Hour), testBooks()),
	})

	l := c.Lookup(testKey)
	if l.Outcome != lookup.Hit {
		t.Fatalf("outcome = %s, want hit", l.Outcome)
	}
	if len(l.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(l.Candidates))
	}
	for i := range l.Candidates {
		if l.Candidates[i].Source() != candidate.SourceCache {
			t.Errorf("candidate %d source = %s", i, l.Candidates[i].Source())
		}
		if l.Candidates[i].Score() != 0 {
			t.Errorf("candidate %d pre-scored: %v", i, l.Candidates[i].Score())
		}
	}
	if l.Warning != nil {
		t.Errorf("unexpected warning: %v", l.Warning)
	}
}

func TestLookup_Miss(t *testing.T) {
	c := newTestCache(t, 0)
	if l := c.Lookup(testKey); l.Outcome != lookup.Miss || len(l.Candidates) != 0 {
		t.Fatalf("unexpected lookup: %+v", l)
	}
}

func TestLookup_EmptyBucketIsMiss(t *testing.T) {
	c := newTestCache(t, 0)
	c.Replace(map[string][]byte{testKey.String(): mustPayload(t, fixedNow, nil)})
	if l := c.Lookup(testKey); l.Outcome != lookup.Miss {
		t.Fatalf("outcome = %s, want miss", l.Outcome)
	}
}

func TestLookup_Stale(t *testing.T) {
	c := newTestCache(t, 5*24*time.Hour)
	c.Replace(map[string][]byte{
		testKey.String(): mustPayload(t, fixedNow.Add(-6*24*time.Hour), testBooks()),
	})
	l := c.Lookup(testKey)
	if l.Outcome != lookup.Stale || len(l.Candidates) != 0 {
		t.Fatalf("unexpected lookup: %+v", l)
	}
}

func TestLookup_StalenessDisabled(t *testing.T) {
	c := newTestCache(t, 0)
	c.Replace(map[string][]byte{
		testKey.String(): mustPayload(t, fixedNow.Add(-365*24*time.Hour), testBooks()),
	})
	if l := c.Lookup(testKey); l.Outcome != lookup.Hit {
		t.Fatalf("outcome = %s, want hit", l.Outcome)
	}
}

func TestLookup_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"books": [`},
		{"wrong type", `{"created_at": "2026-03-10T00:00:00Z", "books": {"id": "x"}}`},
		{"missing created_at", `{"books": []}`},
		{"invalid record", `{"created_at": "2026-03-10T00:00:00Z", "books": [{"id": "x", "title": "t", "age_min": 9, "age_max": 3, "categories": ["fantasy"]}]}`},
		{"record without category", `{"created_at": "2026-03-10T00:00:00Z", "books": [{"id": "x", "title": "t", "age_min": 3, "age_max": 9}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCache(t, 0)
			c.Replace(map[string][]byte{testKey.String(): []byte(tc.raw)})

			l := c.Lookup(testKey)
			if l.Outcome != lookup.Corrupt {
				t.Fatalf("outcome = %s, want corrupt", l.Outcome)
			}
			if len(l.Candidates) != 0 {
				t.Errorf("corrupt lookup returned %d candidates", len(l.Candidates))
			}
			if l.Warning == nil || !errors.Is(l.Warning, domain.ErrCacheIntegrity) {
				t.Fatalf("expected CacheIntegrityWarning, got %v", l.Warning)
			}
			if l.Warning.Key != testKey.String() {
				t.Errorf("warning key = %q", l.Warning.Key)
			}
		})
	}
}

func TestLookup_CountsOutcomes(t *testing.T) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lookups"}, []string{"outcome"})
	c := New(0, vec, zap.NewNop())
	c.Replace(map[string][]byte{testKey.String(): []byte("garbage")})

	c.Lookup(testKey)
	c.Lookup(testKey)
	if got := testutil.ToFloat64(vec.WithLabelValues("corrupt")); got != 2 {
		t.Errorf("corrupt count = %v, want 2", got)
	}
}

func TestRefresh(t *testing.T) {
	c := newTestCache(t, 0)
	payload := mustPayload(t, fixedNow, testBooks())

	err := c.Refresh(context.Background(), sourceFunc(func(context.Context) (map[string][]byte, error) {
		return map[string][]byte{testKey.String(): payload}, nil
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 || !c.LoadedAt().Equal(fixedNow) {
		t.Fatalf("snapshot not installed: len=%d loadedAt=%v", c.Len(), c.LoadedAt())
	}

	err = c.Refresh(context.Background(), sourceFunc(func(context.Context) (map[string][]byte, error) {
		return nil, errors.New("redis down")
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Lookup(testKey).Outcome != lookup.Hit {
		t.Error("failed refresh must keep the previous snapshot")
	}
}

func TestRunRefresh_StopsOnCancel(t *testing.T) {
	c := newTestCache(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	loaded := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		c.RunRefresh(ctx, sourceFunc(func(context.Context) (map[string][]byte, error) {
			select {
			case loaded <- struct{}{}:
			default:
			}
			return map[string][]byte{}, nil
		}), time.Millisecond)
		close(done)
	}()

	select {
	case <-loaded:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunRefresh did not stop")
	}
}
