package main

import (
	"fmt"

	"github.com/chaos-io/solidbg/config"
	"github.com/chaos-io/solidbg/server"
	"github.com/chaos-io/solidbg/solidbg/rembg"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background removal HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides SOLIDBG_ADDR)")
	serveCmd.Flags().StringSlice("env-file", []string{".env"}, "dotenv files to load before reading SOLIDBG_* variables")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	ctx := cmd.Context()

	reg := server.NewRegistry()
	janitor, err := server.StartJanitor(reg, cfg.SweepSpec, cfg.ImageTTL)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	orch := rembg.NewOrchestrator(rembg.Options{
		Workers: cfg.Workers,
		MaxSize: cfg.MaxSize,
		Trim:    cfg.Trim,
	})
	srv := server.New(ctx, reg, orch, rembg.NewSourceLoader(nil, cfg.FetchTimeout))
	return srv.Run(ctx, cfg.Addr)
}
