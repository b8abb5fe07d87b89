package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-slark/pipeline"
	"github.com/go-slark/pipeline/example/onboarding"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/pkg/routine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	flags      Settings
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "onboard customers through the pipeline",
	Long:  "onboard builds the onboarding pipeline from config and runs --count customers through it concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := loadSettings(configPath, &flags)
		if err != nil {
			return err
		}
		defer cfg.Close()
		return run(cmd.Context(), s)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.Flags().IntVarP(&flags.Count, "count", "n", 10, "customers to onboard")
	rootCmd.Flags().BoolVar(&flags.FailStorage, "fail-storage", false, "make storage provisioning unavailable")
	rootCmd.Flags().BoolVar(&flags.Trace, "trace", false, "print spans to stdout")
}

func run(ctx context.Context, s *Settings) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o, cleanup, err := initOnboard(ctx, s)
	if err != nil {
		return err
	}
	defer cleanup()

	var completed, failed atomic.Int64
	src := make(chan *onboarding.Request)
	feed := pipeline.NewFeed(o.Handler, src,
		pipeline.Workers[*onboarding.Request](s.Workers),
		pipeline.Report(func(r *onboarding.Request, err error) {
			if err != nil {
				failed.Add(1)
				o.Logger.Log(ctx, logger.ErrorLevel, map[string]interface{}{
					"email": r.Customer.Email,
					"error": err,
				}, "onboarding failed")
				return
			}
			completed.Add(1)
		}))

	routine.GoSafe(ctx, func() {
		defer close(src)
		for i := 0; i < s.Count; i++ {
			select {
			case src <- onboarding.NewRequest(o.Services, newCustomer(i)):
			case <-ctx.Done():
				return
			}
		}
	})

	app := pipeline.NewApp(pipeline.WithRunner(feed), pipeline.WithAppLogger(o.Logger))
	if err = app.Run(ctx); err != nil {
		return err
	}
	o.Logger.Log(ctx, logger.InfoLevel, map[string]interface{}{
		"pipeline":    s.Pipeline.Middlewares,
		"requested":   s.Count,
		"completed":   completed.Load(),
		"failed":      failed.Load(),
		"emails":      len(o.Notifier.Sent()),
		"storage":     o.Storage.Len(),
		"invocations": invocations(o.Registry),
	}, "onboarding finished")
	return nil
}

func newCustomer(i int) *onboarding.Customer {
	return &onboarding.Customer{
		FirstName: fmt.Sprintf("Customer%d", i),
		LastName:  "Onboard",
		Email:     fmt.Sprintf("customer%d@example.com", i),
	}
}

// invocations sums the pipeline invocation counter.
func invocations(reg *prometheus.Registry) float64 {
	mfs, err := reg.Gather()
	if err != nil {
		return 0
	}
	var n float64
	for _, mf := range mfs {
		if mf.GetName() != "total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			n += m.GetCounter().GetValue()
		}
	}
	return n
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
