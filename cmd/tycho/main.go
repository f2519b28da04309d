package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/0xmsu/tycho-indexer/client"
	"github.com/0xmsu/tycho-indexer/ethereum"
)

// App bundles the subsystems one tycho process drives: the batched account
// extractor against a node, the contract-state HTTP client, and the
// realtime subscription client.
type App struct {
	Extractor  *ethereum.BatchExtractor
	HTTPClient *client.HTTPClient
	Realtime   *client.RealtimeClient
}

func main() {
	if err := mainImpl(); err != nil {
		log.Error("tycho exited with error", "err", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg, err := ParseTychoConfig(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rawClient, err := rpc.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return err
	}
	defer rawClient.Close()

	app := &App{
		Extractor:  ethereum.NewBatchExtractor(rawClient),
		HTTPClient: client.NewHTTPClient(cfg.HTTPBaseURL, cfg.HTTPVersion, nil),
		Realtime: client.NewRealtimeClient(client.Config{
			URL:              cfg.WSEndpoint,
			DefaultExtractor: client.ExtractorIdentity{Chain: cfg.Chain, Extractor: cfg.DefaultExtractor},
		}),
	}

	if err := app.Realtime.Start(ctx); err != nil {
		return err
	}
	defer app.Realtime.Close()

	log.Info("tycho started", "rpc", cfg.RPCEndpoint, "ws", cfg.WSEndpoint, "chain", cfg.Chain)

	return app.run(ctx)
}

// run drains decoded realtime messages until ctx is canceled or the
// server closes the session. Downstream persistence is an external
// collaborator (spec.md §1); this loop only demonstrates consumption.
func (a *App) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-a.Realtime.RealtimeMessages():
			if !ok {
				return nil
			}
			log.Info("received block account changes",
				"extractor", change.Extractor,
				"block", change.Block.Number,
				"accounts", len(change.AccountUpdates))
		}
	}
}
