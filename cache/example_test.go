package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/tiercache/cache"
)

func ExampleBuildKey() {
	key := cache.BuildKey("disease", "lookup", []any{"diabetes"}, map[string]any{
		"limit": 10,
		"lang":  "en",
	})
	fmt.Println(key)
	// Output: disease:lookup:diabetes:lang=en:limit=10
}

func ExampleMemoize() {
	// A fallback-only manager: no remote tier configured.
	manager := cache.NewManager(cache.Config{}, nil, nil, nil, nil)
	ctx := context.Background()

	executions := 0
	lookup := cache.Memoize(manager, "disease-lookup", time.Minute,
		func(_ context.Context, args ...any) (string, error) {
			executions++
			return "overview of " + args[0].(string), nil
		})

	first, _ := lookup.Call(ctx, "diabetes")
	second, _ := lookup.Call(ctx, "diabetes")

	fmt.Println(first)
	fmt.Println(second)
	fmt.Println("executions:", executions)
	// Output:
	// overview of diabetes
	// overview of diabetes
	// executions: 1
}

func ExampleManager_InvalidatePattern() {
	manager := cache.NewManager(cache.Config{}, nil, nil, nil, nil)
	ctx := context.Background()

	manager.Set(ctx, "disease:diabetes:overview", []byte("stale"), time.Minute)
	manager.Set(ctx, "disease:flu:overview", []byte("fresh"), time.Minute)

	manager.InvalidatePattern(ctx, "disease:diabetes:*")

	_, diabetesOK := manager.Get(ctx, "disease:diabetes:overview")
	_, fluOK := manager.Get(ctx, "disease:flu:overview")
	fmt.Println(diabetesOK, fluOK)
	// Output: false true
}

func ExampleWarmer() {
	manager := cache.NewManager(cache.Config{}, nil, nil, nil, nil)
	ctx := context.Background()

	lookup := cache.Memoize(manager, "lookup", time.Minute,
		func(_ context.Context, args ...any) (string, error) {
			return "summary of " + args[0].(string), nil
		})

	warmer := cache.NewWarmer(nil, 2)
	warmer.Register("warm:diabetes", func(ctx context.Context) error {
		_, err := lookup.Call(ctx, "diabetes")
		return err
	})
	warmer.Start(ctx)
	warmer.Wait()

	// The first real call is already a hit.
	value, _ := lookup.Call(ctx, "diabetes")
	fmt.Println(value)
	fmt.Println("local hits:", manager.Stats(cache.TierLocal).Hits)
	// Output:
	// summary of diabetes
	// local hits: 1
}
