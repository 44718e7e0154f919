package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/evacsim/pkg/bench"
	"github.com/jihwankim/evacsim/pkg/config"
	"github.com/jihwankim/evacsim/pkg/model"
	"github.com/jihwankim/evacsim/pkg/monitoring"
	"github.com/jihwankim/evacsim/pkg/reporting"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <config>",
	Args:  cobra.ExactArgs(1),
	Short: "Run a multi-trial benchmark campaign",
	Long: `Runs N seeded trials of the given building and writes a JSON report:
run metadata plus a "trials" array of per-trial summaries. SIGINT stops the campaign after the current trial and
still writes the partial report.`,
	RunE: runBenchmark,
}

func init() {
	benchmarkCmd.Flags().Int("trials", 10, "number of trials")
	benchmarkCmd.Flags().Float64("fire-weight", 0, "fire-proximity priority weight")
	benchmarkCmd.Flags().Int("firefighters", 2, "responders per trial")
	benchmarkCmd.Flags().String("output", "benchmark.json", "report output file")
	benchmarkCmd.Flags().Int64("seed", 1, "base seed; trial i uses seed+i")
	benchmarkCmd.Flags().Bool("lp", false, "use the LP assigner instead of greedy")
	benchmarkCmd.Flags().Float64("under-capacity-penalty", 0, "penalty for under-filled rescue items")
	benchmarkCmd.Flags().Int("capacity", 3, "responder carry capacity K")
	benchmarkCmd.Flags().Int("tick-limit", bench.DefaultTickLimit, "per-trial tick limit")
	benchmarkCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9190)")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	buildingPath := args[0]
	trials, _ := cmd.Flags().GetInt("trials")
	fireWeight, _ := cmd.Flags().GetFloat64("fire-weight")
	firefighters, _ := cmd.Flags().GetInt("firefighters")
	output, _ := cmd.Flags().GetString("output")
	seed, _ := cmd.Flags().GetInt64("seed")
	useLP, _ := cmd.Flags().GetBool("lp")
	underCap, _ := cmd.Flags().GetFloat64("under-capacity-penalty")
	capacity, _ := cmd.Flags().GetInt("capacity")
	tickLimit, _ := cmd.Flags().GetInt("tick-limit")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	logLevel := reporting.LogLevelInfo
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormatText,
		Output: os.Stderr,
	})

	cfg, err := config.Load(buildingPath)
	if err != nil {
		return err
	}

	var metrics *monitoring.Metrics
	if metricsAddr != "" {
		metrics = monitoring.New()
		go func() {
			if err := metrics.Serve(metricsAddr); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}

	mcfg := model.DefaultConfig()
	mcfg.UseLP = useLP
	mcfg.FirePriorityWeight = fireWeight
	mcfg.UnderCapacityPenalty = underCap
	mcfg.KCapacity = capacity

	runner := bench.NewRunner(bench.Config{
		Building:     cfg,
		BuildingName: buildingPath,
		Trials:       trials,
		BaseSeed:     seed,
		Responders:   firefighters,
		TickLimit:    tickLimit,
		Model:        mcfg,
		Logger:       logger,
		Metrics:      metrics,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("benchmark starting",
		"building", buildingPath, "trials", trials, "firefighters", firefighters)

	report, runErr := runner.Run(ctx)

	storage := reporting.NewStorage(logger)
	if err := storage.SaveRun(report, output); err != nil {
		return err
	}
	reporting.NewFormatter(os.Stdout).WriteSummary(report)

	if runErr != nil {
		return fmt.Errorf("benchmark incomplete: %w", runErr)
	}
	return nil
}
