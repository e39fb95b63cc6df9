package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/factweave/factweave"
	"github.com/factweave/factweave/config"
)

var generateVerbose bool

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Run one refinement loop synchronously and print the article",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(strings.Join(args, " "))
	},
}

func init() {
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "print the full iteration history")
}

func runGenerate(topic string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	fw, err := factweave.New(cfg)
	if err != nil {
		return err
	}

	result, err := fw.Generate(context.Background(), topic, generateVerbose)
	if err != nil {
		return err
	}

	if result.Accepted {
		fmt.Println(result.Article)
		fmt.Printf("\n-- accepted after %d iteration(s)\n", result.Iterations)
	} else {
		fmt.Printf("generation failed: %s\n", result.Reason)
	}

	for _, rec := range result.History {
		fmt.Printf("\n== iteration %d: %s (%s)\n", rec.Iteration, rec.Verdict, rec.Elapsed.Round(time.Millisecond))
		for _, annotation := range rec.Annotations {
			fmt.Printf("   - %s\n", annotation)
		}
	}
	return nil
}
