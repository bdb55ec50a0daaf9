// Command addcoupons appends coupon codes to the pool.
//
// Codes are taken from the arguments, or a built-in list when none are given.
// With -kafka the codes are sent as a restock request instead of being written
// to storage directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/azizikri/coupon-giveaway/internal/config"
	"github.com/azizikri/coupon-giveaway/internal/delivery/kafka"
	"github.com/azizikri/coupon-giveaway/internal/repository"
	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/twmb/franz-go/pkg/kgo"
)

var defaultRestock = []string{
	"SUMMER25",
	"WELCOME10",
	"HOLIDAY30",
	"FLASH50",
	"NEWUSER15",
	"WEEKEND20",
	"SPECIAL40",
	"LOYALTY15",
	"SEASONAL25",
	"BIRTHDAY10",
}

var validate = validator.New()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("addcoupons: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("addcoupons", flag.ContinueOnError)
	viaKafka := fs.Bool("kafka", false, "publish a restock request instead of writing to storage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codes, err := parseCodes(fs.Args())
	if err != nil {
		return err
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *viaKafka {
		return publishRestock(ctx, cfg, codes, out)
	}
	return addDirect(ctx, cfg, codes, out)
}

func parseCodes(args []string) ([]string, error) {
	if len(args) == 0 {
		return defaultRestock, nil
	}

	codes := make([]string, 0, len(args))
	for _, arg := range args {
		code := strings.TrimSpace(arg)
		if err := validate.Var(code, "required,max=64"); err != nil {
			return nil, fmt.Errorf("invalid coupon code %q: %w", arg, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func addDirect(ctx context.Context, cfg *config.Config, codes []string, out io.Writer) error {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer store.Close()

	pool := usecase.NewPool(store)
	for _, code := range codes {
		fmt.Fprintf(out, "Adding coupon: %s\n", code)
	}
	if err := pool.AddCoupons(ctx, codes); err != nil {
		return fmt.Errorf("add coupons: %w", err)
	}

	list, err := pool.List(ctx)
	if err != nil {
		return fmt.Errorf("list coupons: %w", err)
	}
	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Code)
	}

	fmt.Fprintf(out, "Total coupons in pool: %d\n", len(list))
	fmt.Fprintf(out, "Coupon codes: %s\n", strings.Join(names, ", "))
	return nil
}

func publishRestock(ctx context.Context, cfg *config.Config, codes []string, out io.Writer) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers()...),
		kgo.ClientID(cfg.KafkaClientID+"-cli"),
	)
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	id, err := kafka.NewPublisher(client).PublishRestock(ctx, codes)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Queued restock %s with %d coupons\n", id, len(codes))
	return nil
}
