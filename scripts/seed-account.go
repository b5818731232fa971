package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aiinterface/notifier/internal/model"
	"github.com/aiinterface/notifier/internal/repository"
)

type output struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Balance   string `json:"balance,omitempty"`
	Threshold string `json:"threshold"`
	Alerts    bool   `json:"alerts"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		userID      = flag.String("user-id", "", "Profile UUID (default: random)")
		email       = flag.String("email", "dev@aiinterface.local", "Profile email")
		name        = flag.String("name", "Dev User", "Display name")
		balance     = flag.String("balance", "1", "Credit balance; empty leaves user_credits untouched")
		threshold   = flag.String("threshold", "5", "Low-balance alert threshold")
		alerts      = flag.Bool("alerts", true, "Enable usage alerts and email notifications")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	id, err := parseUserID(*userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := checkAmount("threshold", *threshold); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if *balance != "" {
		if err := checkAmount("balance", *balance); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	acct := &repository.Account{
		Profile: &model.Profile{
			ID:          id,
			Email:       *email,
			DisplayName: *name,
		},
		Preference: &model.Preference{
			UserID:                   id,
			UsageAlerts:              *alerts,
			EmailNotifications:       *alerts,
			LowBalanceAlertThreshold: *threshold,
		},
	}
	if *balance != "" {
		acct.Credit = &model.Credit{UserID: id, Balance: *balance}
	}

	if err := repo.UpsertAccount(ctx, acct); err != nil {
		fmt.Fprintln(os.Stderr, "seed account:", err)
		os.Exit(1)
	}

	out := output{
		UserID:    id,
		Email:     *email,
		Name:      *name,
		Balance:   *balance,
		Threshold: *threshold,
		Alerts:    *alerts,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func parseUserID(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return uuid.NewString(), nil
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid user id: %s", input)
	}
	return parsed.String(), nil
}

func checkAmount(field, value string) error {
	if _, err := decimal.NewFromString(value); err != nil {
		return fmt.Errorf("invalid %s: %s", field, value)
	}
	return nil
}
