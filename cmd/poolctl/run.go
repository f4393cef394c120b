package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gopool/pthreadpool/internal/logx"
	"github.com/gopool/pthreadpool/pkg/pthreadpool"
)

func buildRunCmd() *cobra.Command {
	var threads uint
	var jobs int
	var sleep time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a fixed batch of synthetic jobs and wait for them to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(threads, jobs, sleep)
		},
	}

	cmd.Flags().UintVarP(&threads, "threads", "t", 4, "pool size")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 100, "number of synthetic jobs to submit")
	cmd.Flags().DurationVar(&sleep, "sleep", 5*time.Millisecond, "per-job simulated work duration")

	return cmd
}

func runBatch(threads uint, jobCount int, sleep time.Duration) error {
	var wg sync.WaitGroup
	var completed int64
	wg.Add(jobCount)

	pool, err := pthreadpool.Init(threads, func(id int, fn func(payload any), payload any, signalArg any) int {
		n := atomic.AddInt64(&completed, 1)
		logx.PoolEvent("run", "job %d done (%d/%d)", id, n, jobCount)
		wg.Done()
		return 0
	}, nil)
	if err != nil {
		return fmt.Errorf("poolctl run: %w", err)
	}
	defer pool.Destroy()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for i := 0; i < jobCount; i++ {
		id := i
		if err := pool.AddJob(id, func(payload any) {
			if sleep > 0 {
				time.Sleep(sleep)
			}
		}, nil); err != nil {
			return fmt.Errorf("poolctl run: submitting job %d: %w", id, err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("all %d jobs completed", jobCount)
	case <-sig:
		logx.Warn("interrupted, stopping pool")
		if err := pool.Stop(); err != nil {
			return fmt.Errorf("poolctl run: %w", err)
		}
	}
	return nil
}
