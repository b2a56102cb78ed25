package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnrich_AppliesResultsAndFallbacks(t *testing.T) {
	var mu sync.Mutex
	got := map[string]int{}

	call := func(ctx context.Context, id string) (int, error) {
		if id == "bad" {
			return 0, errors.New("escrow unavailable")
		}
		return len(id), nil
	}
	apply := func(id string, v int) {
		mu.Lock()
		got[id] = v
		mu.Unlock()
	}

	e := Enrich(context.Background(), []string{"a", "bbb", "bad"}, call, -1, apply, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))

	require.Equal(t, map[string]int{"a": 1, "bbb": 3, "bad": -1}, got)
}

func TestEnrich_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	call := func(ctx context.Context, id string) (int, error) {
		<-release
		return 1, nil
	}

	e := Enrich(context.Background(), []string{"x"}, call, 0, func(string, int) {}, nil)
	select {
	case <-e.Done():
		t.Fatal("enrichment settled before its call returned")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Wait(ctx), context.Canceled)

	close(release)
	<-e.Done()
}

func TestEnrich_EmptyInputSettles(t *testing.T) {
	e := Enrich(context.Background(), nil, func(context.Context, string) (int, error) { return 0, nil }, 0, func(string, int) {}, nil)
	require.NoError(t, e.Wait(context.Background()))
}

func TestEnrichmentError_Unwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&EnrichmentError{Item: "7", Err: cause})
	require.ErrorIs(t, err, cause)
	require.Equal(t, "enrich item 7: timeout", err.Error())
}
