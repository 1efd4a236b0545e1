// cmd/server/main.go
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/laststand/lobbyd/internal/auth"
	"github.com/laststand/lobbyd/internal/cache"
	"github.com/laststand/lobbyd/internal/config"
	"github.com/laststand/lobbyd/internal/handlers"
	"github.com/laststand/lobbyd/internal/lobby"
	"github.com/laststand/lobbyd/internal/middleware"
	"github.com/laststand/lobbyd/internal/session"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if err := auth.Init(); err != nil {
		logger.Fatalf("failed to init auth keys: %v", err)
	}

	kv, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("failed to connect store: %v", err)
	}
	defer kv.Close()

	lobbies := lobby.NewStore(kv, logger)
	sessions := session.NewDirectory(kv, cfg.SessionTTL)
	gateway := handlers.NewGateway(logger, lobbies, sessions, cfg.StoreTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.Handle("/auth/guest", middleware.LogMiddleware(logger)(
		handlers.GuestTokenHandler(logger),
	))
	mux.Handle("/lobbies", middleware.LogMiddleware(logger)(
		handlers.ListLobbiesHandler(gateway),
	))
	mux.Handle("/ws", gateway.WSHandler())

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
