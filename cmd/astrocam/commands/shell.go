package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/cameraestellar/astrocam-go/cmd/astrocam/interactive"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive capture session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cfg, setupLogging(cfg.LogLevel))
			if err != nil {
				return err
			}
			defer rt.Close()

			sh, err := interactive.New(rt.ctrl, rt.camera)
			if err != nil {
				return err
			}
			// Keep log lines from breaking the prompt.
			log.SetOutput(sh.Stdout())

			log.Printf("Camera: %s", rt.chars)
			log.Printf("Run: %s", rt.ctrl.RunID())

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sh.Run(ctx, cancel)
			return nil
		},
	}
}
