// Command helixd serves the tower editor over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/editor"
	"github.com/chazu/helix/pkg/server"
	"github.com/chazu/helix/pkg/settings"
)

func main() {
	configPath := flag.String("config", os.Getenv("HELIX_CONFIG"), "YAML settings file")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	s, errs := settings.Load(*configPath)
	if s == nil {
		logrus.Fatalf("helixd: %v", errs[0])
	}
	for _, err := range errs {
		logrus.Errorf("helixd: settings: %v", err)
	}
	if len(errs) > 0 {
		os.Exit(1)
	}

	logrus.SetLevel(s.LogLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logrus.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	fields := logrus.Fields{}
	for k, v := range s.LogSummary() {
		fields[k] = v
	}
	logrus.WithFields(fields).Info("helixd: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ed, err := editor.Open(ctx, s)
	if err != nil {
		logrus.Fatalf("helixd: %v", err)
	}
	defer ed.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(ed, reg)
	if err != nil {
		logrus.Fatalf("helixd: %v", err)
	}
	if err := srv.Run(ctx, s.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Errorf("helixd: %v", err)
		return
	}
	logrus.Info("helixd: stopped")
}
