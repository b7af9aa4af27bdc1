package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/api"
	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/metrics"
	"github.com/andrescamacho/spacetraders-fleet/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/application/missions"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/contract"
	domainFleet "github.com/andrescamacho/spacetraders-fleet/internal/domain/fleet"
	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/config"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/database"
	"github.com/andrescamacho/spacetraders-fleet/internal/infrastructure/pidfile"
)

// Circuit breaker tuning against the live API
const (
	breakerThreshold = 10
	breakerPause     = 120 * time.Second
)

// NewRunCommand creates the run command that starts the fleet commander
func NewRunCommand() *cobra.Command {
	var (
		force   bool
		assigns []string
		skips   []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fleet commander until interrupted",
		Long: `Start the fleet commander: discover the fleet, assign a mission to every
ship, and keep reacting to mission events until Ctrl+C.

Only one commander may drive an agent at a time; a PID file under data_dir
enforces that. Manual assignments pin a ship to a mission for the whole
run, skipped ships stay idle no matter what the strategy would choose.

Examples:
  fleet run
  fleet run --config configs/config.yaml
  fleet run --assign BADGER-3:gate_build --assign BADGER-7:scan
  fleet run --skip BADGER-5 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseAssignments(assigns)
			if err != nil {
				return err
			}

			fmt.Println("SpaceTraders Fleet Commander v0.1.0")
			fmt.Println("===================================")

			fmt.Println("Loading configuration...")
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.API.Token == "" {
				return fmt.Errorf("no agent token configured: set SPACETRADERS_TOKEN or api.token in config.yaml")
			}

			// One commander per agent: two event loops would fight over
			// the same ships.
			pidPath := filepath.Join(cfg.DataDir, "fleet-commander.pid")
			fmt.Printf("Acquiring PID file lock: %s\n", pidPath)
			pf := pidfile.New(pidPath)
			if err := pf.Acquire(); err != nil {
				if !force {
					return fmt.Errorf("%w\nUse --force to take over from the running commander", err)
				}
				fmt.Println("Force mode enabled - stopping existing commander...")
				if err := pf.ForceAcquire(); err != nil {
					return fmt.Errorf("failed to take over PID file: %w", err)
				}
			}
			defer func() {
				if err := pf.Release(); err != nil {
					log.Printf("Warning: failed to release PID file: %v", err)
				}
			}()
			fmt.Println("PID file lock acquired")

			return runCommander(cfg, overrides, skips)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"Stop a running commander and take over its PID file")
	cmd.Flags().StringArrayVar(&assigns, "assign", nil,
		"Pin a ship to a mission, e.g. BADGER-3:gate_build (repeatable)")
	cmd.Flags().StringArrayVar(&skips, "skip", nil,
		"Leave a ship idle for this run (repeatable)")

	return cmd
}

// parseAssignments turns --assign SHIP:MISSION flags into strategy
// overrides. Bad values fail fast here instead of parking ships mid-run.
func parseAssignments(assigns []string) (map[string]string, error) {
	if len(assigns) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(assigns))
	for _, raw := range assigns {
		ship, mission, ok := strings.Cut(raw, ":")
		if !ok || ship == "" || mission == "" {
			return nil, fmt.Errorf("invalid --assign value %q, expected SHIP:MISSION", raw)
		}
		mission = strings.ToLower(mission)
		if _, err := domainFleet.ParseMissionKind(mission); err != nil {
			return nil, fmt.Errorf("invalid --assign value %q: %w", raw, err)
		}
		overrides[strings.ToUpper(ship)] = mission
	}
	return overrides, nil
}

// runCommander wires the full stack and runs the commander event loop until
// a signal arrives or every mission has ended.
func runCommander(cfg *config.Config, overrides map[string]string, skips []string) error {
	// 1. Database connection and schema
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	clock := shared.NewRealClock()

	// 2. Request scheduler: one API budget for the whole fleet
	var scheduler *api.RequestScheduler
	if cfg.Scheduler.SharedBucket {
		bucket, err := api.NewSharedBucket(db, cfg.Scheduler.Rate, cfg.Scheduler.Burst, clock)
		if err != nil {
			return fmt.Errorf("failed to open shared rate bucket: %w", err)
		}
		scheduler = api.NewRequestSchedulerWithSource(bucket)
		fmt.Printf("Request scheduler initialized (shared bucket, %.1f req/s, burst %d)\n",
			cfg.Scheduler.Rate, cfg.Scheduler.Burst)
	} else {
		scheduler = api.NewRequestScheduler(cfg.Scheduler.Rate, cfg.Scheduler.Burst)
		fmt.Printf("Request scheduler initialized (%.1f req/s, burst %d)\n",
			cfg.Scheduler.Rate, cfg.Scheduler.Burst)
	}
	scheduler.Start()
	defer scheduler.Stop()

	breaker := api.NewCircuitBreaker(breakerThreshold, breakerPause, clock)

	// 3. Metrics (optional)
	var instr api.Instrumentation
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()

		apiCollector := metrics.NewAPIMetricsCollector()
		if err := apiCollector.Register(); err != nil {
			return fmt.Errorf("failed to register API metrics: %w", err)
		}
		instr = apiCollector

		fleetCollector := metrics.NewFleetMetricsCollector(scheduler.QueueDepth, breaker.Tripped)
		if err := fleetCollector.Register(); err != nil {
			return fmt.Errorf("failed to register fleet metrics: %w", err)
		}
		metrics.SetGlobalFleetCollector(fleetCollector)
		fleetCollector.Start(context.Background())
		defer fleetCollector.Stop()

		server := metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path)
		server.Start()
		defer server.Stop()
		fmt.Printf("Metrics served on http://%s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	// 4. API client
	client := api.NewClientWithConfig(cfg.API.Token, scheduler, breaker, cfg.API.BaseURL, clock, instr)
	fmt.Println("API client initialized")

	// 5. Stores and shared state
	markets := persistence.NewMarketStore(db, clock)
	ops := persistence.NewOperationsStore(db, clock)
	state := fleet.NewFleetState(markets, clock)
	contracts := contract.NewState()

	deps := &fleet.Deps{
		API:         client,
		State:       state,
		Markets:     markets,
		Ops:         ops,
		Contracts:   contracts,
		Clock:       clock,
		ScanMaxAge:  cfg.Commander.ScanMaxAge,
		GateSources: cfg.Commander.GateSourceMap(),
	}

	// 6. Strategy and fleet metadata
	strategy := domainFleet.NewStrategy(domainFleet.CapitalPolicy{
		GateFloor:     cfg.Capital.GateFloor,
		TradeMin:      cfg.Capital.TradeMin,
		IdleThreshold: cfg.Capital.IdleThreshold,
	})
	meta := domainFleet.NewRegistry(cfg.Commander.Names(), cfg.Commander.Categories())

	skipShips := cfg.Commander.SkipSet()
	for _, symbol := range skips {
		skipShips[strings.ToUpper(symbol)] = true
	}

	commanderCfg := fleet.CommanderConfig{
		EventTimeout:  cfg.Commander.EventTimeout,
		MaxRestarts:   cfg.Commander.MaxRestarts,
		SnapshotEvery: cfg.Commander.SnapshotEvery,
		SkipShips:     skipShips,
		Overrides:     overrides,
	}

	// 7. Signals: first one stops gracefully, second one aborts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down, waiting for missions to stop...")
		state.Shutdown()
		cancel()
		<-sigCh
		fmt.Println("Second signal, aborting")
		os.Exit(1)
	}()

	// 8. Run the commander (blocks until shutdown)
	commander := fleet.NewCommander(deps, missions.NewRegistry(), strategy, meta, commanderCfg)

	fmt.Println("\n✓ Commander is running")
	fmt.Println("Press Ctrl+C to stop")

	if err := commander.Run(ctx); err != nil {
		return fmt.Errorf("commander error: %w", err)
	}

	fmt.Println("\nCommander stopped")
	return nil
}
