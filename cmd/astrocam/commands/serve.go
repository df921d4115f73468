package commands

import (
	"context"
	"errors"
	"log"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameraestellar/astrocam-go/pkg/discovery"
	"github.com/cameraestellar/astrocam-go/pkg/remote"
)

func serveCmd() *cobra.Command {
	var (
		listen   string
		mdns     bool
		instance string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the remote shutter API",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg.Remote.Enabled = true
			if flags.Changed("listen") {
				cfg.Remote.Listen = listen
			}
			if flags.Changed("mdns") {
				cfg.Discovery.Enabled = mdns
			}
			if flags.Changed("name") {
				cfg.Discovery.Instance = instance
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := setupLogging(cfg.LogLevel)
			rt, err := newRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			l, err := net.Listen("tcp", cfg.Remote.Listen)
			if err != nil {
				return err
			}
			srv := remote.NewServer(rt.ctrl, remote.ServerConfig{Addr: cfg.Remote.Listen, Version: Version, Logger: logger})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Discovery.Enabled {
				adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
					Interface: cfg.Discovery.Interface,
					TTL:       discovery.DefaultAdvertiserConfig().TTL,
				})
				info := &discovery.Info{
					Instance: cfg.Discovery.Instance,
					ID:       rt.chars.ID,
					Model:    "astrocam-sim",
					Version:  Version,
					APIPath:  remote.APIPrefix,
					Port:     l.Addr().(*net.TCPAddr).Port,
				}
				if err := adv.Advertise(ctx, info); err != nil {
					l.Close()
					return err
				}
				defer adv.Stop()
				log.Printf("Advertising %q as %s", info.Instance, discovery.ServiceType)
			}

			log.Printf("Camera: %s", rt.chars)
			log.Printf("Remote API on http://%s%s (run %s)", l.Addr(), remote.APIPrefix, rt.ctrl.RunID())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(l) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Println("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":"+strconv.Itoa(discovery.DefaultPort), "listen address")
	cmd.Flags().BoolVar(&mdns, "mdns", false, "advertise via mDNS")
	cmd.Flags().StringVar(&instance, "name", "astrocam", "mDNS instance name")
	return cmd
}
