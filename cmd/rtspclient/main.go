package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ethan/rtsp2-conn/pkg/conn"
	"github.com/ethan/rtsp2-conn/pkg/logger"
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func main() {
	fs := flag.NewFlagSet("rtspclient", flag.ExitOnError)
	logFlags := logger.RegisterFlags(fs)
	method := fs.String("method", "OPTIONS", "RTSP method to send")
	timeout := fs.Duration("timeout", 10*time.Second, "how long to wait for a response")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] rtsp://host[:port]/path\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sends a single RTSP 2.0 request and prints the response.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	rawURI := fs.Arg(0)
	if rawURI == "" {
		rawURI = "rtsp://127.0.0.1:5540"
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

	uri, err := rtsp.ParseURI(rawURI)
	if err != nil {
		log.Error("invalid URI", "uri", rawURI, "error", err)
		os.Exit(1)
	}

	port := uri.Port()
	if port == "" {
		port = "554"
	}
	addr := net.JoinHostPort(uri.Hostname(), port)

	log.Info("dialing", "addr", addr)
	rw, err := net.Dial("tcp", addr)
	if err != nil {
		log.Error("dial failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	defer rw.Close()

	connection, handle := conn.New(rw)
	defer connection.Close()

	req := rtsp.NewRequest(rtsp.Method(*method), uri)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.DebugSend("sending request", "method", *method, "uri", rawURI)
	resp, err := handle.SendRequest(ctx, req)
	if err != nil {
		log.Error("request failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s %d\n", resp.Version, resp.StatusCode)
	for name, values := range resp.Header {
		for _, v := range values {
			fmt.Printf("%s: %s\n", name, v)
		}
	}
	if len(resp.Body) > 0 {
		fmt.Printf("\n%s\n", resp.Body)
	}
}
