package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/warehouse-sim/sim"
	"github.com/inference-sim/warehouse-sim/sim/trace"
)

// logLevelEnv is consulted when --log is not given.
const logLevelEnv = "WHSIM_LOG"

var (
	configPath string // Scenario YAML file
	preset     string // Built-in scenario name, used without --config
	seed       int64  // Master seed; overrides the scenario when set
	days       int    // Number of simulated days; overrides the scenario when set
	startDate  string // First simulated day (YYYY-MM-DD); overrides the scenario when set
	outputDir  string // Trace output directory; empty keeps traces in memory
	logLevel   string // Log verbosity level
	perItem    bool   // Also report per-item results
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "warehouse-sim",
	Short: "Day-stepped ROP/EOQ warehouse simulator with synthetic fulfillment traces",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	},
}

// setupLogging resolves the level from --log, then WHSIM_LOG (which a
// .env file may provide), then "warn".
func setupLogging(cmd *cobra.Command) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}
	level := logLevel
	if !cmd.Flags().Changed("log") {
		if env := strings.TrimSpace(os.Getenv(logLevelEnv)); env != "" {
			level = env
		}
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", level)
	}
	logrus.SetLevel(parsed)
}

// runCmd executes the simulation described by a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the warehouse simulation",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := loadScenario(configPath, preset)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		applyOverrides(cmd, spec)

		cfg, err := sim.NewConfig(spec)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		var store sim.TraceStore = sim.NewMemoryStore()
		if spec.Output != "" {
			store, err = sim.NewDirStore(spec.Output)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		s, err := sim.NewSimulator(cfg, store)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := s.Run(); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printReport(cmd.OutOrStdout(), s, perItem)
		logrus.Info("Simulation complete.")
	},
}

// inspectCmd summarizes a stored trace document
var inspectCmd = &cobra.Command{
	Use:   "inspect <trace.json>",
	Short: "Summarize a trace document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer f.Close()
		log, err := trace.ReadDocument(f)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		trace.Summarize(log).Print(cmd.OutOrStdout())
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic); defaults to $"+logLevelEnv)

	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file")
	runCmd.Flags().StringVar(&preset, "scenario", "default", "Built-in scenario used when --config is not given")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed (overrides the scenario)")
	runCmd.Flags().IntVar(&days, "days", 365, "Number of simulated days (overrides the scenario)")
	runCmd.Flags().StringVar(&startDate, "start-date", "", "First simulated day, YYYY-MM-DD (overrides the scenario)")
	runCmd.Flags().StringVar(&outputDir, "output", "", "Directory for trace documents and tables (overrides the scenario)")
	runCmd.Flags().BoolVar(&perItem, "per-item", false, "Also print per-item results")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}
