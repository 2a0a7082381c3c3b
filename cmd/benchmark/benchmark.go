// Command benchmark load-tests the cache engine in isolation: preload,
// warm up, then hammer Get from many goroutines and report throughput.
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/corekv/corekv/cacheengine"
)

func main() {
	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	const (
		capacity    = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	noExpiry := int64(0)
	engine := cacheengine.New(cacheengine.Config{MaxSize: capacity})

	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		engine.Set(fmt.Sprintf("key-%d", i), i, &noExpiry)
	}
	fmt.Println("Preload complete.")

	fmt.Println("Warming up cache...")
	for i := 0; i < 10000; i++ {
		engine.Get(fmt.Sprintf("key-%d", i%preloadKeys))
	}
	fmt.Println("Warmup complete.")

	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				engine.Get(fmt.Sprintf("key-%d", j%preloadKeys))
			}
		}()
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG
	stats := engine.GetStats()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hit Rate         : %.2f%%\n", stats.HitRate)
	fmt.Println("=========================================")
}
