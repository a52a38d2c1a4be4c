package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphaseven/escrow-chat/internal/api"
	"github.com/alphaseven/escrow-chat/internal/auth"
	"github.com/alphaseven/escrow-chat/internal/config"
	"github.com/alphaseven/escrow-chat/internal/session"
	"github.com/alphaseven/escrow-chat/internal/stats"
	"github.com/alphaseven/escrow-chat/internal/toast"
	"github.com/gorilla/handlers"
)

func main() {
	logger := log.New(os.Stderr, "[escrow-chat] ", log.LstdFlags)

	cfg, err := config.Default()
	if err != nil {
		logger.Fatal("config:", err)
	}

	flag.StringVar(&cfg.ServerURL, "ws-url", cfg.ServerURL, "chat server websocket URL")
	flag.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "trading backend base URL")
	flag.StringVar(&cfg.CredentialsPath, "credentials", cfg.CredentialsPath, "path to the credentials file")
	flag.StringVar(&cfg.DebugAddr, "debug-addr", cfg.DebugAddr, "debug/metrics listen address")
	flag.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay between reconnect attempts")
	flag.BoolVar(&cfg.ReconnectBackoff, "reconnect-backoff", cfg.ReconnectBackoff, "use exponential backoff between reconnect attempts")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	creds, err := auth.NewStore(cfg.CredentialsPath, logger).Load()
	if err != nil {
		logger.Println("no user logged in - notifications disabled")
		return
	}

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)
	session.RegisterMetrics(statsUpdater)
	statsUpdater.RegisterMetric(toast.MetricToastsShown)
	statsUpdater.Run()
	defer statsUpdater.Stop()

	debugSrv := &http.Server{
		Addr:    cfg.DebugAddr,
		Handler: handlers.CombinedLoggingHandler(os.Stdout, mux),
	}
	go func() {
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Println("debug server:", err)
		}
	}()

	apiClient := api.NewClient(cfg.APIBaseURL, logger)

	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), 15*time.Second)
	trades, err := apiClient.UserChats(fetchCtx, creds.UserId)
	cancelFetch()
	if err != nil {
		logger.Fatal("fetch user chats:", err)
	}

	tradeIds := make([]int, 0, len(trades))
	for _, t := range trades {
		tradeIds = append(tradeIds, t.Id)
	}
	logger.Printf("monitoring trades: %v", tradeIds)

	var policy session.ReconnectPolicy
	if cfg.ReconnectBackoff {
		policy = session.NewBackoffReconnect(cfg.ReconnectDelay, 10*cfg.ReconnectDelay)
	} else {
		policy = session.NewFixedReconnect(cfg.ReconnectDelay)
	}

	sess := session.NewSession(cfg.ServerURL, creds.UserId, policy, statsUpdater, logger)
	sess.OnStatus(func(state session.ConnectionState, msg string) {
		fmt.Printf("[%s] %s\n", state, msg)
	})

	presenter := toast.NewPresenter(toast.Config{
		OnChange: renderToasts,
		OnNavigate: func(tradeId int) {
			fmt.Printf("open chat for trade #%d\n", tradeId)
		},
	}, statsUpdater, logger)
	sess.Notify(presenter.HandleEvent)

	sess.Start(tradeIds)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Printf("received signal: %s\n", sig)

	sess.Stop()
	presenter.Stop()

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := debugSrv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("debug server shutdown:", err)
	}

	logger.Println("shutdown complete")
}

func renderToasts(active []toast.Toast) {
	for _, tn := range active {
		if !tn.Visible {
			continue
		}
		fmt.Printf("  [toast %d] New message from %s (Trade #%d): %s\n", tn.Id, tn.SenderName, tn.TradeId, tn.Body)
	}
}
