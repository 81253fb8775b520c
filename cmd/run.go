package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/bkmulusew/routesim2/sim"
	"github.com/bkmulusew/routesim2/state"
)

var (
	scenarioPath string
	logPath      string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Long: `Loads a scenario file, runs it to completion, and prints every node's
state dump along with the results of any scheduled next-hop queries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}
		log, err := buildLogger(level)
		if err != nil {
			return err
		}

		sc, err := state.LoadScenario(scenarioPath)
		if err != nil {
			return err
		}

		net, err := sim.New(sc, log)
		if err != nil {
			return err
		}
		net.Run(sc.Duration)

		for _, id := range net.NodeIds() {
			fmt.Println(net.Node(id))
		}
		for _, r := range net.Results {
			fmt.Printf("t=%v next_hop(%d -> %d) = %d\n", r.At, r.From, r.To, r.Hop)
		}
		return nil
	},
}

func buildLogger(level slog.Level) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:     level,
			AddSource: false,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&scenarioPath, "scenario", "f", "scenario.yaml", "scenario file to run")
	runCmd.Flags().StringVarP(&logPath, "log", "l", "", "also write logs to this file")
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
}
