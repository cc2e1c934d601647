package main

import (
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stubSignal(t *testing.T, sig os.Signal) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- sig
		}()
	}
}

func TestShutdownSignals(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGTERM, os.Interrupt} {
		t.Run(sig.String(), func(t *testing.T) {
			stubSignal(t, sig)

			server := &http.Server{}
			called := make(chan struct{}, 1)
			server.RegisterOnShutdown(func() {
				called <- struct{}{}
			})

			core, logs := observer.New(zapcore.InfoLevel)
			shutdown(server, time.Millisecond, zap.New(core))

			select {
			case <-called:
			case <-time.After(time.Second):
				t.Fatalf("expected server shutdown callback to execute")
			}
			if logs.FilterMessage("shutting down server").Len() != 1 {
				t.Fatalf("expected shutdown to be logged, got %v", logs.All())
			}
		})
	}
}
