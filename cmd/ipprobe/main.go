// Command ipprobe runs inside the appliance. It finds the guest's outbound
// address and writes it to a file for the host to collect.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/onkernel/appliancectl/lib/ipprobe"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/paths"
)

func main() {
	output := flag.String("o", paths.GuestProbeOutput, "file to write the address to")
	target := flag.String("target", ipprobe.DefaultTarget, "address used to pick the outbound route")
	verbose := flag.Bool("v", false, "log each attempt")
	resolve := flag.Bool("resolve", false, "show the host name of the address in logs")
	flag.Parse()
	ipprobe.ReverseLookup.SetEnabled(*resolve)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Options{Level: level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.AddToContext(ctx, log)

	ip, err := ipprobe.Discover(ctx, ipprobe.Options{Target: *target})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := ipprobe.WriteResult(*output, ip); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.InfoContext(ctx, "address written", "ip", ipprobe.Describe(ctx, ip), "path", *output)
}
