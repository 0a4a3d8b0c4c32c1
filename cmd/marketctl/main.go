package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/veritymkt/verity/pkg/client"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: marketctl [-host URL] <command> [flags]

commands:
  config                         show marketplace config
  quote    -seller A -asset H    current price of a listing (optional -at unix)
  buy      -buyer A -seller A -asset H
  cancel   -caller A -seller A -asset H
  receipts [-seller A] [-buyer A] [-limit N]
`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	host := flag.String("host", getenv("VERITY_HOST", "http://127.0.0.1:8080"), "marketplace server URL")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	c := client.New(*host)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "config":
		cfg, err := c.GetConfig(ctx)
		if err != nil {
			log.Fatalf("get config: %v", err)
		}
		printJSON(cfg)

	case "quote":
		fs := flag.NewFlagSet("quote", flag.ExitOnError)
		seller := fs.String("seller", "", "seller address")
		asset := fs.String("asset", "", "asset id")
		at := fs.Int64("at", 0, "unix timestamp to quote at (0 = now)")
		_ = fs.Parse(args[1:])
		if *seller == "" || *asset == "" {
			usage()
		}
		var t time.Time
		if *at != 0 {
			t = time.Unix(*at, 0)
		}
		price, err := c.Quote(ctx, *seller, *asset, t)
		if err != nil {
			log.Fatalf("quote: %v", err)
		}
		fmt.Println(price)

	case "buy":
		fs := flag.NewFlagSet("buy", flag.ExitOnError)
		buyer := fs.String("buyer", "", "buyer address")
		seller := fs.String("seller", "", "seller address")
		asset := fs.String("asset", "", "asset id")
		_ = fs.Parse(args[1:])
		if *buyer == "" || *seller == "" || *asset == "" {
			usage()
		}
		receipt, err := c.BuyNow(ctx, *buyer, *seller, *asset)
		if err != nil {
			log.Fatalf("buy: %v", err)
		}
		printJSON(receipt)

	case "cancel":
		fs := flag.NewFlagSet("cancel", flag.ExitOnError)
		caller := fs.String("caller", "", "caller address")
		seller := fs.String("seller", "", "seller address")
		asset := fs.String("asset", "", "asset id")
		_ = fs.Parse(args[1:])
		if *caller == "" || *seller == "" || *asset == "" {
			usage()
		}
		if err := c.CancelListing(ctx, *caller, *seller, *asset); err != nil {
			log.Fatalf("cancel: %v", err)
		}
		fmt.Println("cancelled")

	case "receipts":
		fs := flag.NewFlagSet("receipts", flag.ExitOnError)
		seller := fs.String("seller", "", "filter by seller")
		buyer := fs.String("buyer", "", "filter by buyer")
		limit := fs.Int("limit", 20, "max rows")
		_ = fs.Parse(args[1:])
		rows, err := c.Receipts(ctx, *seller, *buyer, *limit)
		if err != nil {
			log.Fatalf("receipts: %v", err)
		}
		printJSON(rows)

	default:
		usage()
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(out))
}
