package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jihwankim/evacsim/pkg/config"
	"github.com/jihwankim/evacsim/pkg/model"
	"github.com/jihwankim/evacsim/pkg/reporting"
	"github.com/jihwankim/evacsim/pkg/sim"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <building> [num_firefighters] [fire_weight]",
	Args:  cobra.RangeArgs(1, 3),
	Short: "Run one simulation and print the tick-by-tick trace",
	RunE:  runVisualize,
}

func init() {
	visualizeCmd.Flags().Int64("seed", 42, "simulation seed")
	visualizeCmd.Flags().Int("tick-limit", 600, "maximum ticks before giving up")
}

func runVisualize(cmd *cobra.Command, args []string) error {
	buildingPath := args[0]
	responders := 2
	fireWeight := 0.0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("num_firefighters must be a positive integer, got %q", args[1])
		}
		responders = n
	}
	if len(args) > 2 {
		w, err := strconv.ParseFloat(args[2], 64)
		if err != nil || w < 0 {
			return fmt.Errorf("fire_weight must be a non-negative number, got %q", args[2])
		}
		fireWeight = w
	}
	seed, _ := cmd.Flags().GetInt64("seed")
	tickLimit, _ := cmd.Flags().GetInt("tick-limit")

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

	s, err := sim.New(cfg, sim.Params{
		NumResponders: responders,
		FireOrigin:    -1,
		Seed:          seed,
	})
	if err != nil {
		return err
	}

	mcfg := model.DefaultConfig()
	mcfg.FirePriorityWeight = fireWeight
	mcfg.SweepSeed = seed
	m := model.New(mcfg, logger)

	logger.Info("simulation starting",
		"building", buildingPath, "responders", responders,
		"fire_weight", fireWeight, "seed", seed)

	for s.Stats().Remaining > 0 && s.Tick() < tickLimit {
		state := s.Read()
		actions := m.Decide(state)
		result, err := s.Update(actions)
		if err != nil {
			return err
		}
		renderTick(state, result, m.Phase())
	}

	stats := s.Stats()
	fmt.Printf("\n=== run finished: tick=%d phase=%s rescued=%d dead=%d remaining=%d (%.1f min) ===\n",
		stats.Tick, m.Phase(), stats.Rescued, stats.Dead, stats.Remaining, stats.TimeMinutes)
	return nil
}

// renderTick prints a compact one-line frame plus any notable events.
func renderTick(state *sim.State, result *sim.TickResult, phase model.Phase) {
	fmt.Printf("t=%-4d %-6s rescued=%-3d dead=%-3d", result.Tick, phase, state.Rescued+result.RescuedThisTick, state.Dead+result.DeadThisTick)
	for _, r := range state.Responders {
		fmt.Printf("  ff%d@%s", r.ID, state.Graph.Vertices[r.Pos].Name)
		if r.Carrying > 0 {
			fmt.Printf("(+%d)", r.Carrying)
		}
	}
	fmt.Println()
	for _, ev := range result.Events {
		switch ev.Type {
		case sim.EventEdgeBurned:
			e := state.Graph.Edges[ev.Edge]
			fmt.Printf("       ! edge %s—%s burned out\n",
				state.Graph.Vertices[e.A].Name, state.Graph.Vertices[e.B].Name)
		case sim.EventVertexIgnited:
			fmt.Printf("       ! %s ignited\n", state.Graph.Vertices[ev.Vertex].Name)
		case sim.EventFireDeath, sim.EventSmokeDeath:
			fmt.Printf("       ! %d lost in %s (%s)\n",
				ev.Count, state.Graph.Vertices[ev.Vertex].Name, ev.Type)
		}
	}
}
