package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/auth"
	"github.com/amdadul/brandstore-crm/internal/config"
	"github.com/amdadul/brandstore-crm/internal/session"
)

const usage = `usage: crm <command> [flags]

commands:
  login            -email -password
  logout
  status
  dashboard        total sales and stock
  stores           store list
  stock            [-pages N]  inventory list
  stock-updates    [-pages N]  stock-update invoices
  sales            [-pages N]  sales invoices
  stock-update     [-serial a,b]  receive units; reads scanned codes from stdin
  sell             -name -phone [-address] [-serial a,b]; reads scanned codes from stdin
  change-password  -old -new -confirm; prompts for the OTP
  forgot-password  -phone; prompts for the OTP and new password
  report sales     -start YYYY-MM-DD -end YYYY-MM-DD [-store ID]
  report stock     [-store ID]
`

// app holds the wired client stack shared by every command.
type app struct {
	cfg     *config.Config
	client  *api.Client
	session *auth.Session
	out     io.Writer
	in      *bufio.Reader
}

func main() {
	// env vars override .env
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := session.Open(ctx, cfg.StateDSN)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer closeStore()

	client := api.New(cfg.BaseURL, store,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithPerPage(cfg.StockPerPage, cfg.InvoicePerPage),
	)
	a := &app{
		cfg:     cfg,
		client:  client,
		session: auth.NewSession(client, store),
		out:     os.Stdout,
		in:      bufio.NewReader(os.Stdin),
	}

	if _, err := a.session.Restore(ctx); err != nil {
		log.Printf("Failed to restore session: %v", err)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeStore()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status()
	case "dashboard":
		return a.dashboard(ctx)
	case "stores":
		return a.stores(ctx)
	case "stock":
		return a.stockList(ctx, args)
	case "stock-updates":
		return a.stockUpdateList(ctx, args)
	case "sales":
		return a.salesList(ctx, args)
	case "stock-update":
		return a.stockUpdate(ctx, args)
	case "sell":
		return a.sell(ctx, args)
	case "change-password":
		return a.changePassword(ctx, args)
	case "forgot-password":
		return a.forgotPassword(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
