/*
 * MIT License
 *
 * Copyright (c) 2026 chatrelay contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Command chatrelayd runs the chat relay server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nabbar/chatrelay/chatconfig"
	"github.com/nabbar/chatrelay/metrics"
	"github.com/nabbar/chatrelay/observer"
	"github.com/nabbar/chatrelay/server"
	"github.com/nabbar/chatrelay/tlsconfig"
)

func main() {
	v := viper.New()

	root := &cobra.Command{
		Use:   "chatrelayd",
		Short: "A chat relay server speaking a length-prefixed binary protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), chatconfig.Load(v))
		},
	}

	if err := chatconfig.RegisterFlags(root, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg chatconfig.Settings) error {
	log := observer.New(os.Stdout, observer.ParseFormat(cfg.LogFormat))

	tlsCfg, err := tlsconfig.Config{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}.New()
	if err != nil {
		return err
	}

	var coll *metrics.Collector
	if cfg.MetricsAddr != "" {
		coll = metrics.New()
		reg := prometheus.NewRegistry()
		if err := coll.Register(reg); err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		go func() {
			<-ctx.Done()
			_ = metricsSrv.Close()
		}()
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, "metrics server:", err)
			}
		}()
	}

	srv := server.New(server.Config{
		BindIP:            cfg.BindIP,
		Port:              cfg.Port,
		TLSConfig:         tlsCfg,
		MaxFileFrameBytes: cfg.MaxFileFrameBytes,
		BufferCapacity:    cfg.BufferCapacity,
		MaxConnections:    cfg.MaxConnections,
		Metrics:           coll,
	})

	srv.Subscribe(log.Observer())
	if coll != nil {
		srv.Subscribe(coll.Observer())
	}

	return srv.ListenAndServe(ctx)
}
