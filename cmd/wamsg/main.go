package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jask/wamsg/internal/carrier"
	"github.com/jask/wamsg/internal/compose"
	"github.com/jask/wamsg/internal/config"
	"github.com/jask/wamsg/internal/database"
	"github.com/jask/wamsg/internal/database/repository"
	"github.com/jask/wamsg/internal/llm"
	"github.com/jask/wamsg/internal/secrets"
	"github.com/jask/wamsg/internal/tui"
	"github.com/jask/wamsg/internal/validate"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// The history log lives in-process only; it is gone when the program exits.
	db, err := database.Open(database.InMemoryDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := repository.NewSentMessageRepo(db)
	sess := compose.NewSession(repo)

	if key := resolveOpenAIKey(cfg); key != "" {
		sess.Provider = llm.NewOpenAIProvider(key)
	}

	creds := resolveTwilioCreds(cfg)
	sess.Creds = creds
	if validate.CarrierConfig(creds) == nil {
		sess.Carrier = carrier.NewTwilioDispatcher(creds)
	}

	p := tea.NewProgram(tui.New(ctx, cfg, sess, repo), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// resolveOpenAIKey prefers the environment, then the secret store, then the
// config file value.
func resolveOpenAIKey(cfg config.Config) string {
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if k, err := secrets.Fetch("openai"); err == nil {
		return k
	}
	return strings.TrimSpace(cfg.LLM.APIKey)
}

// resolveTwilioCreds resolves each field env-first, matching the variable
// names Twilio documents.
func resolveTwilioCreds(cfg config.Config) carrier.Credentials {
	creds := carrier.Credentials{
		AccountSID: firstNonEmpty(os.Getenv("TWILIO_ACCOUNT_SID"), cfg.Twilio.AccountSID),
		From:       firstNonEmpty(os.Getenv("TWILIO_WHATSAPP_FROM"), cfg.Twilio.From),
	}
	creds.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if creds.AuthToken == "" {
		if tok, err := secrets.Fetch("twilio"); err == nil {
			creds.AuthToken = tok
		}
	}
	if creds.AuthToken == "" {
		creds.AuthToken = cfg.Twilio.AuthToken
	}
	creds.AccountSID = strings.TrimSpace(creds.AccountSID)
	creds.AuthToken = strings.TrimSpace(creds.AuthToken)
	creds.From = strings.TrimSpace(creds.From)
	return creds
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
