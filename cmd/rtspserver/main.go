package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethan/rtsp2-conn/pkg/conn"
	"github.com/ethan/rtsp2-conn/pkg/logger"
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func main() {
	fs := flag.NewFlagSet("rtspserver", flag.ExitOnError)
	logFlags := logger.RegisterFlags(fs)
	listenAddr := fs.String("listen", ":5540", "TCP address to accept RTSP 2.0 connections on")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "RTSP 2.0 connection-engine reference server\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		logger.PrintUsageExamples()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logConfig, err := logFlags.ToConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logger.SetDefault(log)

	log.Info("starting RTSP 2.0 server", "log_config", logFlags.String())

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Error("failed to listen", "addr", *listenAddr, "error", err)
		os.Exit(1)
	}
	log.Info("listening", "addr", ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", "signal", sig)
		cancel()
		ln.Close()
	}()

	var connID int
	for {
		rw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("accept failed", "error", err)
			continue
		}
		connID++
		connLog := log.With("component", "conn", "remote_addr", rw.RemoteAddr().String(), "conn_id", connID)
		go serveConnection(ctx, rw, connLog)
	}

	log.Info("graceful shutdown complete")
}

// serveConnection dispatches every request against a minimal handler that
// knows the session-free subset of RTSP 2.0: OPTIONS advertises the
// supported method set, and every other supported method is acknowledged
// with 200 OK. Session lifecycle (SETUP state, PLAY/PAUSE/TEARDOWN tied to
// a particular media resource) is out of scope for this reference
// implementation; a real media server would replace this Service with one
// that tracks per-session state.
func serveConnection(ctx context.Context, rw net.Conn, log *logger.Logger) {
	defer rw.Close()

	svc := conn.ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		cseq, _ := req.Header.CSeq()
		log.DebugRecv("request received", "method", string(req.Method), "uri", req.URI.String())

		switch req.Method {
		case rtsp.Options:
			resp := rtsp.NewResponse(rtsp.OK)
			resp.Header.SetCSeq(cseq)
			resp.Header.Set("Public", joinMethods(rtsp.SupportedMethods))
			return resp, nil
		case rtsp.Setup, rtsp.Describe, rtsp.Play, rtsp.Pause, rtsp.Teardown:
			resp := rtsp.NewResponse(rtsp.OK)
			resp.Header.SetCSeq(cseq)
			return resp, nil
		default:
			return rtsp.NotImplementedResponse(cseq), nil
		}
	})

	connection, _ := conn.NewServer(rw, svc)
	defer connection.Close()

	<-ctx.Done()
}

func joinMethods(methods []rtsp.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
