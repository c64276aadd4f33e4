package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"alertbadge-go/bus"
	"alertbadge-go/errcode"
	"alertbadge-go/logging"
	"alertbadge-go/platform"
	"alertbadge-go/services/badge"
	"alertbadge-go/services/config"
	"alertbadge-go/services/discovery"
	"alertbadge-go/services/profile"
	"alertbadge-go/services/wifi"
	"alertbadge-go/x/timex"
)

func main() {
	board := flag.String("board", "", "embedded board config (badge, host); defaults to BADGE_BOARD")
	flag.Parse()

	cfg, err := config.Load(*board)
	if err != nil {
		println("config:", err.Error())
		os.Exit(2)
	}
	log, err := logging.NewLogger(logging.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	if err != nil {
		println("logger:", err.Error())
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	udp, err := discovery.DialBroadcast(cfg.Discovery.Port)
	if err != nil {
		log.Fatal("discovery_socket", zap.Error(err))
	}
	defer udp.Close()

	// Hardware outlives a restart; the application does not.
	pins := platform.NewHostPins()
	radio := wifi.NewNetlinkRadio(&platform.HostLink{}, 10*time.Second)
	nv := profile.NewFileStore(cfg.NVPath)

	log.Info("badge_starting", zap.String("board", cfg.Board), zap.String("nv_path", cfg.NVPath))
	for boot := 1; ; boot++ {
		app, err := badge.New(badge.Deps{
			Config:    cfg,
			Pins:      pins,
			Radio:     radio,
			NV:        nv,
			Discovery: udp,
			Clock:     timex.Real{},
			Log:       log.With(zap.Int("boot", boot)),
			Bus:       bus.NewBus(32),
		})
		if err != nil {
			log.Fatal("badge_init", zap.Error(err))
		}
		err = app.Run(ctx)
		app.Close()

		switch {
		case errcode.Is(err, errcode.Restart):
			log.Info("badge_restart", zap.Int("boot", boot), zap.Error(err))
		case errors.Is(err, context.Canceled):
			log.Info("badge_stopped")
			return
		default:
			log.Error("badge_failed", zap.Error(err))
			os.Exit(1)
		}
	}
}
