package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"aspd/internal/server"
	"aspd/internal/session"
	"aspd/internal/smt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	ServeAddr  string
	EngineArgs []string
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "serve a solving session over HTTP",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		if err := serveExec(); err != nil {
			fmt.Printf("service err: %v", err)
		} else {
			fmt.Printf("service quit")
		}
	},
}

func init() {
	serveCommand.Flags().StringVar(&ServeAddr, "addr", "", "listen address, overrides server.addr")
	serveCommand.Flags().StringSliceVar(&EngineArgs, "engine-arg", nil, "engine arguments for create, override engine.args")
}

func serveExec() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ServeAddr != "" {
		cfg.Server.Addr = ServeAddr
	}
	if len(EngineArgs) > 0 {
		cfg.Engine.Args = EngineArgs
	}

	smt.Init()
	defer smt.Exit()

	locked := session.NewLocked(session.NewSession(server.DefaultRegistry()))
	defer locked.Do(func(s *session.Session) error {
		s.Shutdown()
		return nil
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(locked, server.Options{CreateArgs: cfg.Engine.Args}).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
