package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/meshcall/internal/adapters/console"
	"github.com/dkeye/meshcall/internal/adapters/media"
	"github.com/dkeye/meshcall/internal/adapters/rtc"
	"github.com/dkeye/meshcall/internal/adapters/signal"
	"github.com/dkeye/meshcall/internal/app/orch"
	"github.com/dkeye/meshcall/internal/config"
	"github.com/dkeye/meshcall/internal/core"
	"github.com/dkeye/meshcall/internal/domain"
)

var rootCmd = &cobra.Command{
	Use:   "meshcall",
	Short: "Join a mesh audio/video room through a signaling relay",
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a room with a fresh key and enter it",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := domain.NewRoomKey()
		log.Info().Str("room", string(key)).Msg("created room, share this key")
		return runRoom(key)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <room-key>",
	Short: "Enter an existing room by key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := domain.ParseRoomKey(args[0])
		if err != nil {
			return err
		}
		return runRoom(key)
	},
}

func runRoom(key domain.RoomKey) error {
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	provider := &media.StaticProvider{Audio: cfg.Audio, Video: cfg.Video}
	acquire := func() (core.MediaSource, error) { return media.Acquire(provider) }

	o := orch.New(
		signal.NewClient(cfg.RelayURL),
		rtc.Factory(rtc.Config(cfg.ICEServers)),
		acquire,
		console.New(),
	)

	if err := o.EnterRoom(ctx, key); err != nil {
		return err
	}
	defer o.Leave()

	<-ctx.Done()
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	rootCmd.AddCommand(createCmd, joinCmd)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("meshcall failed")
		os.Exit(1)
	}
}
