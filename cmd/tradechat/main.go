package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alphaseven/escrow-chat/internal/api"
	"github.com/alphaseven/escrow-chat/internal/auth"
	"github.com/alphaseven/escrow-chat/internal/config"
	"github.com/alphaseven/escrow-chat/internal/session"
	"github.com/alphaseven/escrow-chat/internal/stats"
)

var (
	tradeId  int
	login    bool
	logout   bool
	username string
	password string
)

func main() {
	logger := log.New(os.Stderr, "[trade-chat] ", log.LstdFlags)

	cfg, err := config.Default()
	if err != nil {
		logger.Fatal("config:", err)
	}

	flag.IntVar(&tradeId, "trade", 0, "trade id of the chat to open")
	flag.BoolVar(&login, "login", false, "log in and store credentials")
	flag.BoolVar(&logout, "logout", false, "clear stored credentials")
	flag.StringVar(&username, "username", "", "username for -login")
	flag.StringVar(&password, "password", "", "password for -login")
	flag.StringVar(&cfg.ServerURL, "ws-url", cfg.ServerURL, "chat server websocket URL")
	flag.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "trading backend base URL")
	flag.StringVar(&cfg.CredentialsPath, "credentials", cfg.CredentialsPath, "path to the credentials file")
	flag.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay between reconnect attempts")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	store := auth.NewStore(cfg.CredentialsPath, logger)
	apiClient := api.NewClient(cfg.APIBaseURL, logger)

	switch {
	case login:
		if err := doLogin(store, apiClient, logger); err != nil {
			logger.Fatal("login:", err)
		}
		return
	case logout:
		if err := store.Clear(); err != nil {
			logger.Fatal("logout:", err)
		}
		logger.Println("logged out")
		return
	}

	if tradeId <= 0 {
		logger.Fatal("a trade id is required, pass -trade")
	}

	creds, err := store.Load()
	if err != nil {
		logger.Fatal("load credentials: ", err)
	}

	runChat(cfg, creds, apiClient, logger)
}

func doLogin(store *auth.Store, apiClient *api.Client, logger *log.Logger) error {
	if username == "" || password == "" {
		return fmt.Errorf("-username and -password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := apiClient.Login(ctx, username, password)
	if err != nil {
		return err
	}

	creds := auth.Credentials{
		UserId:   res.User.Id,
		Username: res.User.Username,
		Token:    res.Token,
	}
	if res.Token != "" {
		// Prefer the identity baked into the token when one is issued.
		if fromToken, err := auth.FromToken(res.Token); err == nil {
			creds = fromToken
			if creds.Username == "" {
				creds.Username = res.User.Username
			}
		}
	}

	if err := store.Save(creds); err != nil {
		return err
	}

	logger.Printf("logged in as %q (id %d)", creds.Username, creds.UserId)
	return nil
}

func runChat(cfg *config.Config, creds auth.Credentials, apiClient *api.Client, logger *log.Logger) {
	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), 15*time.Second)
	history, err := apiClient.TradeMessages(fetchCtx, tradeId)
	cancelFetch()
	if err != nil {
		logger.Println("fetch history:", err)
	}

	fmt.Printf("--- Trade #%d chat ---\n", tradeId)
	for _, msg := range history {
		fmt.Printf("%s: %s\n", msg.SenderName, msg.Message)
	}

	sess := session.NewSession(cfg.ServerURL, creds.UserId,
		session.NewFixedReconnect(cfg.ReconnectDelay), stats.Noop{}, logger)

	sess.OnStatus(func(state session.ConnectionState, msg string) {
		fmt.Printf("[%s] %s\n", state, msg)
	})
	sess.Watch(tradeId, func(ev *session.Event) {
		switch {
		case ev.Joined != nil:
			fmt.Println("* joined chat")
		case ev.Left != nil:
			fmt.Println("* left chat")
		case ev.Message != nil:
			if ev.Message.SenderId == creds.UserId {
				// Own messages are echoed locally on send.
				return
			}
			fmt.Printf("%s: %s\n", ev.Message.SenderName, ev.Message.Body)
		case ev.Error != nil:
			fmt.Println("! server error:", ev.Error.Detail)
		}
	})

	sess.Start([]int{tradeId})

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				sess.Stop()
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if sess.SendMessage(line) {
				fmt.Printf("%s: %s\n", creds.Username, line)
			} else {
				fmt.Println("! not connected, message not sent")
			}
		case sig := <-sigs:
			logger.Printf("received signal: %s\n", sig)
			sess.Stop()
			return
		}
	}
}
