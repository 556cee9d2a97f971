package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"livewall-backend-go/internal/checkout"
	"livewall-backend-go/internal/paddle"
)

var checkoutFlags struct {
	priceID      string
	email        string
	orderID      string
	userID       string
	apiBaseURL   string
	sessionToken string
	pollInterval time.Duration
}

// checkoutCmd opens a hosted checkout and waits for it to finish, reporting completion to
// the API the way the web client does.
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Open a hosted checkout and wait for its outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		v.AutomaticEnv()
		v.SetDefault("PAYMENT_API_BASE_URL", "https://sandbox-api.paddle.com")
		apiKey := v.GetString("PAYMENT_API_KEY")
		if apiKey == "" {
			return errors.New("PAYMENT_API_KEY is required")
		}
		priceID := checkoutFlags.priceID
		if priceID == "" {
			priceID = v.GetString("PAYMENT_PRICE_ID")
		}

		logger, err := newLogger(false)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := paddle.NewClient(v.GetString("PAYMENT_API_BASE_URL"), apiKey)
		var notifier checkout.Notifier
		if checkoutFlags.apiBaseURL != "" && checkoutFlags.sessionToken != "" {
			notifier = checkout.NewHTTPNotifier(checkoutFlags.apiBaseURL, checkoutFlags.sessionToken)
		}

		orchestrator, err := checkout.New(ctx, checkout.NewHostedProvider(client, checkoutFlags.pollInterval), notifier, logger)
		if err != nil {
			return err
		}

		customData := map[string]string{}
		if checkoutFlags.userID != "" {
			customData["userId"] = checkoutFlags.userID
		}
		if checkoutFlags.orderID != "" {
			customData["orderId"] = checkoutFlags.orderID
		}

		outcome, err := orchestrator.Checkout(ctx, checkout.Request{
			PriceID:          priceID,
			CustomerEmail:    checkoutFlags.email,
			CustomData:       customData,
			OrderReferenceID: checkoutFlags.orderID,
			Present: func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to pay: %s\n", url)
			},
		})
		if err != nil {
			return err
		}
		logger.Info("Checkout finished", zap.String("outcome", string(outcome.Kind)), zap.String("transactionId", outcome.TransactionID))
		fmt.Fprintf(cmd.OutOrStdout(), "Checkout %s\n", outcome.Kind)
		return nil
	},
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&checkoutFlags.priceID, "price-id", "", "provider price ID (defaults to PAYMENT_PRICE_ID)")
	f.StringVar(&checkoutFlags.email, "email", "", "customer email")
	f.StringVar(&checkoutFlags.orderID, "order-id", "", "order reference reported on completion")
	f.StringVar(&checkoutFlags.userID, "user-id", "", "user ID attached as custom data")
	f.StringVar(&checkoutFlags.apiBaseURL, "api-base-url", "", "livewall API base URL for the completion ping")
	f.StringVar(&checkoutFlags.sessionToken, "session-token", "", "session token used for the completion ping")
	f.DurationVar(&checkoutFlags.pollInterval, "poll-interval", 3*time.Second, "transaction status poll interval")
}
