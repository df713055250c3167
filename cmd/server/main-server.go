// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wavetermdev/copad/pkg/cconfig"
	"github.com/wavetermdev/copad/pkg/copadbase"
	"github.com/wavetermdev/copad/pkg/cpjwt"
	"github.com/wavetermdev/copad/pkg/cstore"
	"github.com/wavetermdev/copad/pkg/web"
)

// these are set at build time
var CopadVersion = "0.0.0"
var BuildTime = "0"

var shutdownOnce sync.Once

var rootCmd = &cobra.Command{
	Use:   "copadsrv",
	Short: "copad - copilot editor page demo server",
	Long:  `copad serves a demo page embedding a copilot code editor widget and runs its page controller.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print copad version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("v%s (%s)\n", CopadVersion, BuildTime)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the copad server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

func doShutdown(reason string) {
	shutdownOnce.Do(func() {
		log.Printf("shutting down: %s\n", reason)
		watcher := cconfig.GetWatcher()
		if watcher != nil {
			watcher.Close()
		}
		cstore.CloseSessionStore()
		time.Sleep(500 * time.Millisecond)
		log.Printf("shutdown complete\n")
		os.Exit(0)
	})
}

func installShutdownSignalHandlers() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for sig := range sigCh {
			doShutdown(fmt.Sprintf("got signal %v", sig))
			break
		}
	}()
}

func configWatcher() {
	watcher := cconfig.GetWatcher()
	if watcher != nil {
		watcher.Start()
	}
}

func runServer() error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[copad] ")
	copadbase.CopadVersion = CopadVersion
	copadbase.BuildTime = BuildTime

	if copadbase.IsDevMode() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			log.Printf("error loading .env file: %v\n", err)
		}
	}
	copadbase.CacheEnvVars()
	err := copadbase.EnsureDataDir()
	if err != nil {
		return fmt.Errorf("error ensuring copad data dir: %w", err)
	}
	err = copadbase.EnsureDBDir()
	if err != nil {
		return fmt.Errorf("error ensuring copad db dir: %w", err)
	}
	err = copadbase.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("error ensuring copad config dir: %w", err)
	}
	copadLock, err := copadbase.AcquireCopadLock()
	if err != nil {
		return fmt.Errorf("error acquiring copad lock (another instance of copad is likely running): %w", err)
	}
	defer func() {
		err = copadLock.Close()
		if err != nil {
			log.Printf("error releasing copad lock: %v\n", err)
		}
	}()
	log.Printf("copad version: %s (%s)\n", CopadVersion, BuildTime)
	log.Printf("copad data dir: %s\n", copadbase.GetDataDir())
	log.Printf("copad config dir: %s\n", copadbase.GetConfigDir())
	err = cstore.InitSessionStore()
	if err != nil {
		return fmt.Errorf("error initializing sessionstore: %w", err)
	}
	err = cpjwt.GenerateKeys()
	if err != nil {
		return fmt.Errorf("error generating session token keys: %w", err)
	}
	installShutdownSignalHandlers()
	configWatcher()
	settings := cconfig.GetWatcher().GetFullConfig().Settings
	webListener, err := web.MakeTCPListener("web", settings.WebListenAddr)
	if err != nil {
		return fmt.Errorf("error creating web listener: %w", err)
	}
	wsListener, err := web.MakeTCPListener("websocket", settings.WebWSListenAddr)
	if err != nil {
		return fmt.Errorf("error creating websocket listener: %w", err)
	}
	web.SetWSServerAddr(wsListener.Addr().String())
	log.Printf("demo page: http://%s/\n", webListener.Addr())
	group, _ := errgroup.WithContext(context.Background())
	group.Go(func() error {
		web.RunWebSocketServer(wsListener)
		return fmt.Errorf("websocket server exited")
	})
	group.Go(func() error {
		web.RunWebServer(webListener)
		return fmt.Errorf("web server exited")
	})
	err = group.Wait()
	runtime.KeepAlive(copadLock)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
