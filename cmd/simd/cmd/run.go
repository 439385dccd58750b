package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/codyborn/agent-rts/engine/ai"
	"github.com/codyborn/agent-rts/engine/core"
	"github.com/codyborn/agent-rts/engine/maplib"
	"github.com/codyborn/agent-rts/engine/observer"
	"github.com/codyborn/agent-rts/engine/systems"
)

// startingCredits funds the opening build order
const startingCredits = 400

// runConfig comes from the environment; command flags override it
type runConfig struct {
	MapPath   string  `env:"RTS_MAP"`
	Ticks     int     `env:"RTS_TICKS" envDefault:"2400"`
	TickRate  float64 `env:"RTS_TICK_RATE" envDefault:"20"`
	Realtime  bool    `env:"RTS_REALTIME"`
	ReplayIn  string  `env:"RTS_REPLAY_IN"`
	ReplayOut string  `env:"RTS_REPLAY_OUT"`
	LogLevel  string  `env:"RTS_LOG_LEVEL" envDefault:"info"`
	Quiet     bool    `env:"RTS_QUIET"`
}

var (
	flagMap       string
	flagTicks     int
	flagRealtime  bool
	flagReplayIn  string
	flagReplayOut string
	flagQuiet     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a skirmish to completion or for a fixed number of ticks",
	Long: `Runs a two-sided skirmish: player 0 is the local commander driven by
the strategic planner, player 1 is fully autonomous. Without --map a
built-in battlefield is generated. The run stops at --ticks or as soon
as only one side still holds units or buildings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}
		return runSkirmish(cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&flagMap, "map", "m", "", "map file (JSON); generated when empty")
	runCmd.Flags().IntVarP(&flagTicks, "ticks", "t", 0, "tick budget for the run")
	runCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "pace ticks to wall-clock time instead of fast-forwarding")
	runCmd.Flags().StringVar(&flagReplayIn, "replay-in", "", "replay file to resubmit commands from")
	runCmd.Flags().StringVar(&flagReplayOut, "replay-out", "", "record submitted commands to this file")
	runCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress the live event feed")
}

func loadRunConfig(cmd *cobra.Command) (runConfig, error) {
	var cfg runConfig
	if err := env.Parse(&cfg); err != nil {
		return runConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cmd.Flags().Changed("map") {
		cfg.MapPath = flagMap
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = flagTicks
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Realtime = flagRealtime
	}
	if cmd.Flags().Changed("replay-in") {
		cfg.ReplayIn = flagReplayIn
	}
	if cmd.Flags().Changed("replay-out") {
		cfg.ReplayOut = flagReplayOut
	}
	if cmd.Flags().Changed("quiet") {
		cfg.Quiet = flagQuiet
	}
	if cfg.Ticks <= 0 {
		return runConfig{}, fmt.Errorf("tick budget must be positive, got %d", cfg.Ticks)
	}
	return cfg, nil
}

func runSkirmish(cfg runConfig) error {
	logger := newLogger(cfg.LogLevel)
	fs := afero.NewOsFs()

	tm, err := loadOrGenerateMap(fs, cfg.MapPath)
	if err != nil {
		return err
	}

	bus := core.NewEventBus()
	state := core.NewGameState(tm, bus)
	defs := systems.DefaultDefs()

	engine := core.NewEngine(state, cfg.TickRate, logger)
	engine.AddSystem(systems.NewMovementSystem(state))
	engine.AddSystem(systems.NewCombatSystem(state))
	engine.AddSystem(systems.NewGatherSystem(state))
	engine.AddSystem(systems.NewProductionSystem(state, defs))
	engine.AddSystem(systems.NewVisionSystem(state))

	applier := systems.NewCommandApplier(state, defs, logger)
	applier.Attach(bus)

	client, synchronous := chooseClient(logger)
	aiOpts := ai.DefaultOptions()
	aiOpts.Synchronous = synchronous
	engine.AddSystem(ai.NewAISystem(state, defs, client, cfg.TickRate, aiOpts, logger))

	if err := setupSkirmish(state, defs, logger); err != nil {
		return err
	}

	// Observer feed over the in-memory broker
	pubsub := observer.NewGoChannelPubSub()
	defer pubsub.Close()
	bridge := observer.NewBridge(pubsub, logger)
	bridge.Attach(bus)
	defer bridge.Detach()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.Quiet {
		if err := observer.Consume(ctx, pubsub, printEnvelope); err != nil {
			return fmt.Errorf("start event feed: %w", err)
		}
	}

	if cfg.ReplayOut != "" {
		rec, err := core.NewReplayRecorder(fs, cfg.ReplayOut)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		defer rec.Close()
		engine.SetRecorder(rec)
	}

	if cfg.ReplayIn != "" {
		cmds, err := core.LoadReplay(fs, cfg.ReplayIn)
		if err != nil {
			return fmt.Errorf("load replay: %w", err)
		}
		for _, c := range cmds {
			engine.Submit(c)
		}
		logger.Info("replay loaded", "commands", len(cmds), "path", cfg.ReplayIn)
	}

	logger.Info("skirmish starting",
		"map", tm.Name, "size", fmt.Sprintf("%dx%d", tm.Width, tm.Height),
		"ticks", cfg.Ticks, "realtime", cfg.Realtime)

	if cfg.Realtime {
		err := engine.Run(ctx, uint64(cfg.Ticks))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	} else {
		for i := 0; i < cfg.Ticks; i++ {
			if ctx.Err() != nil || gameOver(state) {
				break
			}
			engine.Step()
		}
	}

	printSummary(state, engine, bus)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func loadOrGenerateMap(fs afero.Fs, path string) (*maplib.TileMap, error) {
	if path == "" {
		return generateSkirmishMap("Contested Crossing", 64, 64), nil
	}
	tm, err := maplib.LoadJSON(fs, path)
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	return tm, nil
}

// chooseClient prefers a configured HTTP endpoint, else the built-in
// heuristics. The heuristic client runs synchronously so offline runs
// replay identically.
func chooseClient(logger *slog.Logger) (ai.Client, bool) {
	cfg, err := ai.LoadConfig()
	if err != nil {
		logger.Warn("bad decider config, using heuristics", "err", err)
		return ai.NewHeuristicClient(), true
	}
	client, err := ai.NewHTTPClient(cfg, nil)
	if err != nil {
		if !errors.Is(err, ai.ErrDecisionDisabled) {
			logger.Warn("decider unavailable, using heuristics", "err", err)
		}
		return ai.NewHeuristicClient(), true
	}
	logger.Info("using remote decision endpoint", "url", cfg.URL)
	return client, false
}

// setupSkirmish places one command center per start position and a small
// starting force around it. Player 0 is the local commander; the rest are
// autonomous.
func setupSkirmish(state *core.GameState, defs *systems.Defs, logger *slog.Logger) error {
	tm := state.Map
	if len(tm.StartPositions) < 2 {
		return fmt.Errorf("map %q has %d start positions, need 2", tm.Name, len(tm.StartPositions))
	}

	for _, sp := range tm.StartPositions {
		isLocal := sp.PlayerSlot == 0
		name := fmt.Sprintf("Player %d", sp.PlayerSlot+1)
		if !isLocal {
			name = fmt.Sprintf("Enemy %d", sp.PlayerSlot)
		}
		p := core.NewPlayer(sp.PlayerSlot, name, isLocal)
		p.AddCredits(startingCredits)
		state.AddPlayer(p)

		ccDef := defs.Building(core.BuildingCommandCenter)
		if ccDef == nil {
			return fmt.Errorf("no command center definition")
		}
		anchor := core.GridPosition{Col: sp.Col, Row: sp.Row}
		cc := state.PlaceBuilding(p.ID, core.BuildingCommandCenter, anchor, ccDef.Stats, false, 0)
		if cc == nil {
			return fmt.Errorf("cannot place command center for player %d at (%d,%d)", p.ID, sp.Col, sp.Row)
		}

		force := []core.UnitType{
			core.UnitEngineer, core.UnitEngineer, core.UnitEngineer,
			core.UnitScout, core.UnitMarine, core.UnitMarine,
		}
		for _, typ := range force {
			def := defs.Unit(typ)
			if def == nil {
				return fmt.Errorf("no definition for unit %q", typ)
			}
			pos, ok := openTileNear(state, anchor, cc.Footprint)
			if !ok {
				return fmt.Errorf("no open tile near (%d,%d) for %s", sp.Col, sp.Row, typ)
			}
			if u := state.SpawnUnit(p.ID, typ, pos, def.Stats); u == nil {
				return fmt.Errorf("spawn %s at (%d,%d) failed", typ, pos.Col, pos.Row)
			}
		}
		logger.Info("player ready", "player", p.ID, "name", p.Name, "local", p.IsLocal)
	}
	return nil
}

// openTileNear scans boxes of growing radius around an anchor for a
// walkable, unit-free tile, in row-major order so placement is stable.
func openTileNear(state *core.GameState, anchor core.GridPosition, clearance int) (core.GridPosition, bool) {
	for radius := clearance; radius <= clearance+6; radius++ {
		for row := anchor.Row - radius; row <= anchor.Row+radius; row++ {
			for col := anchor.Col - radius; col <= anchor.Col+radius; col++ {
				pos := core.GridPosition{Col: col, Row: row}
				if !state.Map.IsWalkable(col, row) {
					continue
				}
				if state.UnitAt(pos) != nil {
					continue
				}
				return pos, true
			}
		}
	}
	return core.GridPosition{}, false
}

// gameOver reports whether at most one undefeated player remains
func gameOver(state *core.GameState) bool {
	alive := 0
	for _, p := range state.Players() {
		if !p.Defeated {
			alive++
		}
	}
	return alive <= 1
}

// printEnvelope is the live feed: one line per interesting event. Tick
// and vision chatter stay off it.
func printEnvelope(env observer.Envelope) {
	switch env.Type {
	case "TICK", "RESOURCE_NEARBY", "ENEMY_NEARBY", "COMMAND_RECEIVED",
		"RESOURCE_HARVESTED", "UNIT_ATTACK":
		return
	}
	fmt.Printf("[%6d] %-20s %v\n", env.Tick, env.Type, env.Payload)
}

func printSummary(state *core.GameState, engine *core.Engine, bus *core.EventBus) {
	counts := make(map[string]int)
	for _, e := range bus.Log() {
		counts[e.Type.String()]++
	}

	fmt.Printf("\n=== skirmish over at tick %d ===\n", engine.Tick())
	for _, p := range state.Players() {
		units := 0
		for _, u := range state.UnitsForPlayer(p.ID) {
			if u.Alive() {
				units++
			}
		}
		buildings := len(state.BuildingsForPlayer(p.ID))
		status := "standing"
		if p.Defeated {
			status = "defeated"
		}
		fmt.Printf("%-12s %-9s units=%-3d buildings=%-2d credits=%d\n",
			p.Name, status, units, buildings, p.Credits)
	}
	fmt.Printf("events: spawned=%d destroyed=%d built=%d deposits=%d defeats=%d\n",
		counts["UNIT_SPAWNED"], counts["UNIT_DESTROYED"],
		counts["BUILDING_COMPLETED"], counts["RESOURCE_DEPOSITED"],
		counts["PLAYER_DEFEATED"])
	fmt.Printf("state digest: %s\n", state.Digest())
}
