// Command bridgectl drives a host simulator the way a page would: it connects
// over websocket, reports every reply it gets and issues one bridge call.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/bridge"
	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/logging"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/HsiangNianian/hybridbridge/internal/transport"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("BRIDGE_CONFIG"), "HuJSON config file")
	hostURL := flag.String("host", "", "host simulator page endpoint (overrides bridge.host_url)")
	wait := flag.Duration("wait", 2*time.Second, "how long to wait for the reply")
	skipInit := flag.Bool("no-init", false, "do not ask the host for its platform and version first")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: bridgectl [flags] <command> [args]\n\ncommands:\n%s\n\nflags:\n",
			strings.Join(usageLines(), "\n"))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok || flag.NArg()-1 < cmd.args {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	target := cfg.Bridge.HostURL
	if *hostURL != "" {
		target = *hostURL
	}
	if target == "" {
		target = "ws://localhost:8080" + cfg.Host.PagePath
	}

	if err := run(context.Background(), cfg, target, *wait, !*skipInit, cmd, flag.Args()[1:], logger); err != nil {
		logger.Error("bridgectl failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, target string, wait time.Duration, initFirst bool,
	cmd command, args []string, logger *zap.Logger) error {
	hc, err := cfg.Bridge.Context()
	if err != nil {
		return err
	}
	tr, err := transport.DialWS(ctx, target, cfg.Bridge.AuthToken, logger)
	if err != nil {
		return fmt.Errorf("dial host: %w", err)
	}
	defer tr.Close()

	replies := make(chan protocol.Response, 8)
	b := bridge.New(bridge.Options{
		Context: hc,
		IOS:     tr,
		Handler: bridge.HandlerFunc(func(resp protocol.Response) any {
			replies <- resp
			return nil
		}),
		Store:   store.NewMemoryStore(),
		PageURL: func() string { return target },
		Logger:  logger,
	})
	tr.Listen(func(raw string) { b.Callback(raw) })

	if initFirst {
		if err := b.InitMemberH5Info(ctx); err != nil {
			return err
		}
		if _, err := await(replies, wait); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	if err := cmd.run(ctx, b, args); err != nil && !errors.Is(err, bridge.ErrVersionTooLow) {
		return err
	}
	if cmd.noReply {
		return nil
	}
	resp, err := await(replies, wait)
	if err != nil {
		return err
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(resp)
}

func await(replies <-chan protocol.Response, wait time.Duration) (protocol.Response, error) {
	select {
	case resp := <-replies:
		return resp, nil
	case <-time.After(wait):
		return nil, errors.New("no reply from host")
	}
}
