package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/gopool/pthreadpool/internal/benchconfig"
	"github.com/gopool/pthreadpool/internal/logx"
	"github.com/gopool/pthreadpool/pkg/pthreadpool"
)

const maxRetries = 3

func buildBenchCmd() *cobra.Command {
	var configPath string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a scenario file's job mix against a pool and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := benchconfig.Default()
			if configPath != "" {
				loaded, err := benchconfig.Load(configPath)
				if err != nil {
					return fmt.Errorf("poolctl bench: %w", err)
				}
				scenario = loaded
			}
			return runBench(scenario, metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "scenario YAML file (defaults to a small built-in scenario)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// benchJob is the payload every synthetic job carries: enough to retry
// it by hand when its SignalFunc decides the worker that ran it should
// die.
type benchJob struct {
	kind     benchconfig.JobKind
	duration time.Duration
	attempt  int
}

func runBench(scenario *benchconfig.Scenario, metricsAddr string) error {
	total := 0
	for _, mix := range scenario.Jobs {
		total += mix.Count
	}

	var wg sync.WaitGroup
	wg.Add(total)

	var completed, failed, retried int64
	collector := pthreadpool.NewPoolCollector(scenario.Name)

	var pool *pthreadpool.Pool
	var retryMu sync.Mutex

	signalFn := func(id int, fn func(payload any), payload any, signalArg any) int {
		bj := payload.(*benchJob)
		if bj.kind != benchconfig.KindFail {
			atomic.AddInt64(&completed, 1)
			wg.Done()
			return 0
		}

		atomic.AddInt64(&failed, 1)
		if bj.attempt >= maxRetries {
			logx.Warn("job %d exhausted retries, giving up", id)
			wg.Done()
			return 1
		}

		atomic.AddInt64(&retried, 1)
		bj.attempt++
		backoff := time.Duration(bj.attempt) * 20 * time.Millisecond
		go func() {
			time.Sleep(backoff)
			retryMu.Lock()
			err := pool.AddJob(id, fn, bj)
			retryMu.Unlock()
			if err != nil {
				logx.Errorf(err, "job %d: retry submission failed", id)
				wg.Done()
			}
		}()
		return 1 // this worker dies; RestartCheck brings capacity back
	}

	var err error
	pool, err = pthreadpool.Init(scenario.MaxThreads, signalFn, nil)
	if err != nil {
		return fmt.Errorf("poolctl bench: %w", err)
	}
	defer pool.Destroy()
	pool.SetCollector(collector)

	if metricsAddr != "" {
		go func() {
			logx.Info("serving metrics on %s/metrics", metricsAddr)
			if err := serveMetrics(metricsAddr, collector); err != nil {
				logx.Errorf(err, "metrics server exited")
			}
		}()
	}

	stopMonitor := watchMonitor(pool)
	defer stopMonitor()

	id := 0
	for _, mix := range scenario.Jobs {
		for i := 0; i < mix.Count; i++ {
			bj := &benchJob{kind: mix.Kind, duration: mix.Duration}
			jobID := id
			id++
			if err := pool.AddJob(jobID, func(payload any) { runSyntheticJob(payload.(*benchJob)) }, bj); err != nil {
				return fmt.Errorf("poolctl bench: submitting job %d: %w", jobID, err)
			}
		}
	}

	start := time.Now()
	wg.Wait()
	elapsed := time.Since(start)

	logx.Info("scenario %q: %d jobs in %s (%d failed, %d retried)",
		scenario.Name, total, elapsed, atomic.LoadInt64(&failed), atomic.LoadInt64(&retried))
	fmt.Printf("completed=%d failed=%d retried=%d elapsed=%s throughput=%.1f/s\n",
		atomic.LoadInt64(&completed), atomic.LoadInt64(&failed), atomic.LoadInt64(&retried),
		elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func serveMetrics(addr string, collector *pthreadpool.PoolCollector) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return http.ListenAndServe(addr, mux)
}

func runSyntheticJob(bj *benchJob) {
	switch bj.kind {
	case benchconfig.KindSleep:
		if bj.duration > 0 {
			time.Sleep(bj.duration)
		}
	case benchconfig.KindFail:
		// Work still happens; only the completion signal misbehaves.
	case benchconfig.KindFast:
	}
}

// watchMonitor wires the pool's monitor descriptor to an event loop: a
// goroutine blocked in Read() on the dup'd fd, draining and running
// RestartCheck every time a worker exit wakes it. Returns a stop func.
// On a platform or pool without a monitor fd this is a no-op — the pool
// still works, it just never recovers capacity lost to a failing
// SignalFunc on its own; nothing in this scenario needs that when the
// monitor is unavailable since bench's own retry loop resubmits work
// under a fresh AddJob, which spawns a worker directly if none is idle.
func watchMonitor(pool *pthreadpool.Pool) func() {
	fd, err := pool.MonitorFD()
	if err != nil {
		return func() {}
	}

	f := os.NewFile(uintptr(fd), "pool-monitor")
	stop := make(chan struct{})

	go func() {
		buf := make([]byte, 16)
		for {
			_, err := f.Read(buf)
			select {
			case <-stop:
				return
			default:
			}
			if err != nil {
				return
			}
			_ = pool.Drain()
			if err := pool.RestartCheck(); err != nil {
				logx.Errorf(err, "restart check failed")
			}
		}
	}()

	return func() {
		close(stop)
		f.Close()
	}
}
