package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comedorlabs/suministro/internal/models"
)

// generateCmd is the operator-initiated run: it executes one generation pass
// and prints the report. Validation errors (no eligible period, missing
// diner estimate) are reported synchronously.
var generateCmd = &cobra.Command{
	Use:       "generate {insumos|orders}",
	Short:     "Run one supply generation pass manually",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"insumos", "orders"},
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		eng, cleanup, err := buildEngine(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		var report interface{}
		switch args[0] {
		case "insumos":
			report, err = eng.GenerateRequirements(ctx)
		case "orders":
			report, err = eng.GenerateOrders(ctx)
		}
		if err != nil {
			var vErr *models.ValidationError
			if errors.As(err, &vErr) {
				fmt.Fprintf(os.Stderr, "Cannot run generation: %s\n", vErr.Reason)
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
			os.Exit(1)
		}

		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	},
}

// ackCmd force-resolves the open alert for an ingredient regardless of its
// escalation counter.
var ackCmd = &cobra.Command{
	Use:   "ack <ingredient-id>",
	Short: "Acknowledge and resolve the open stock alert for an ingredient",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		eng, cleanup, err := buildEngine(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		if err := eng.Escalator().Acknowledge(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Alert for %s resolved\n", args[0])
	},
}
