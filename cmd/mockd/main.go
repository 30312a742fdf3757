package main

import (
	"net/http"
	"os"

	"github.com/solveya/console/internal/devserver"
	"github.com/solveya/console/pkg/logger"
)

func main() {
	logger.Init("solveya-mockd.log")

	addr := os.Getenv("MOCKD_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	server := devserver.NewServer()
	logger.Log.Info("Mock diagnostic engine listening", "addr", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		logger.Log.Error("Mock engine stopped", "err", err)
		os.Exit(1)
	}
}
