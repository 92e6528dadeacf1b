// Command reviewdesk-devserver runs an in-memory review backend seeded with
// demo accounts, a brand and pending content.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/randalmurphal/reviewdesk/devserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "reviewdesk-devserver:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("reviewdesk-devserver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "127.0.0.1:8000", "listen address")
	secret := fs.String("secret", os.Getenv("REVIEWDESK_DEV_SECRET"), "token signing secret, at least 32 bytes")
	seed := fs.Bool("seed", true, "create demo users, a brand and pending content")
	accessLog := fs.Bool("access-log", true, "write a combined-format access log to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		*secret = "reviewdesk-devserver-insecure-secret"
		fmt.Fprintln(stderr, "warning: using the built-in signing secret; set --secret outside local development")
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	cfg := devserver.Config{Secret: []byte(*secret), Logger: logger}
	if *accessLog {
		cfg.RequestLog = stdout
	}
	srv, err := devserver.New(cfg)
	if err != nil {
		return err
	}

	if *seed {
		sd, err := devserver.Seed(srv)
		if err != nil {
			return err
		}
		printSeed(stderr, *addr, sd)
	}

	if err := srv.ListenAndServe(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printSeed(w io.Writer, addr string, sd *devserver.Seeded) {
	fmt.Fprintf(w, "Seeded accounts (password %q):\n", devserver.SeedPassword)
	for _, u := range []devserver.User{sd.Creator, sd.ApproverA, sd.ApproverB} {
		fmt.Fprintf(w, "  %-28s %s\n", u.Email, u.Role)
	}
	fmt.Fprintf(w, "Brand:      %s (%s)\n", sd.Brand.Name, sd.Brand.ID)
	fmt.Fprintf(w, "Ingest key: %s\n", sd.IngestKey)
	fmt.Fprintf(w, "\n  export REVIEWDESK_API_BASE=http://%s\n\n", addr)
}
