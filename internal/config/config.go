/**
 * @description
 * This package handles the configuration management for the billing-service.
 * It uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * Beneficiary credential maps are supplied as "IBAN=key" pairs separated by
 * commas, one map per runtime mode (PAYMENT_KEYS_TEST / PAYMENT_KEYS_LIVE).
 * IBANs are normalized (whitespace stripped, uppercased) at load time so the
 * credential router always works on canonical lookup keys.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/boardpay/billing-service/internal/domain"
)

// Config holds all the configuration variables for the billing-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	RuntimeMode    string `mapstructure:"RUNTIME_MODE"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`

	// Card payment provider.
	CardAPIBaseURL      string `mapstructure:"CARD_API_BASE_URL"`
	PaymentKeysTestRaw  string `mapstructure:"PAYMENT_KEYS_TEST"`
	PaymentKeysLiveRaw  string `mapstructure:"PAYMENT_KEYS_LIVE"`
	PublicBaseURL       string `mapstructure:"PUBLIC_BASE_URL"`
	CardNotificationURL string `mapstructure:"CARD_NOTIFICATION_URL"`
	CardReturnURL       string `mapstructure:"CARD_RETURN_URL"`
	CardCancelURL       string `mapstructure:"CARD_CANCEL_URL"`

	// Wire-transfer payment provider.
	WireAPIBaseURL      string `mapstructure:"WIRE_API_BASE_URL"`
	WireClientID        string `mapstructure:"WIRE_CLIENT_ID"`
	WireBeneficiaryIBAN string `mapstructure:"WIRE_BENEFICIARY_IBAN"`
	WireBeneficiaryName string `mapstructure:"WIRE_BENEFICIARY_NAME"`
	WireCallbackURL     string `mapstructure:"WIRE_CALLBACK_URL"`

	// Invoicing system.
	InvoicingAPIBaseURL string `mapstructure:"INVOICING_API_BASE_URL"`
	InvoicingPublicKey  string `mapstructure:"INVOICING_PUBLIC_KEY"`
	InvoicingSecretKey  string `mapstructure:"INVOICING_SECRET_KEY"`

	// CRM board.
	BoardAPIURL   string `mapstructure:"BOARD_API_URL"`
	BoardAPIToken string `mapstructure:"BOARD_API_TOKEN"`

	// Events.
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	BillingEventExchange string `mapstructure:"BILLING_EVENT_EXCHANGE"`

	// Parsed credential maps, keyed by normalized IBAN. Populated after load.
	PaymentKeysTest map[string]string `mapstructure:"-"`
	PaymentKeysLive map[string]string `mapstructure:"-"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("RUNTIME_MODE", "test")
	viper.SetDefault("BILLING_EVENT_EXCHANGE", "billing.events")
	viper.SetDefault("BOARD_API_URL", "https://api.monday.com/v2")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("RUNTIME_MODE", "RUNTIME_MODE", "PAYMENT_MODE")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "BILLING_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("CARD_API_BASE_URL")
	_ = viper.BindEnv("PAYMENT_KEYS_TEST")
	_ = viper.BindEnv("PAYMENT_KEYS_LIVE")
	_ = viper.BindEnv("PUBLIC_BASE_URL")
	_ = viper.BindEnv("CARD_NOTIFICATION_URL")
	_ = viper.BindEnv("CARD_RETURN_URL")
	_ = viper.BindEnv("CARD_CANCEL_URL")
	_ = viper.BindEnv("WIRE_API_BASE_URL")
	_ = viper.BindEnv("WIRE_CLIENT_ID")
	_ = viper.BindEnv("WIRE_BENEFICIARY_IBAN")
	_ = viper.BindEnv("WIRE_BENEFICIARY_NAME")
	_ = viper.BindEnv("WIRE_CALLBACK_URL")
	_ = viper.BindEnv("INVOICING_API_BASE_URL")
	_ = viper.BindEnv("INVOICING_PUBLIC_KEY")
	_ = viper.BindEnv("INVOICING_SECRET_KEY")
	_ = viper.BindEnv("BOARD_API_URL")
	_ = viper.BindEnv("BOARD_API_TOKEN")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("BILLING_EVENT_EXCHANGE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.RuntimeMode = strings.ToLower(strings.TrimSpace(config.RuntimeMode))
	if config.RuntimeMode != "test" && config.RuntimeMode != "live" {
		log.Printf("level=warn component=config msg=\"unknown runtime mode; falling back to test\" mode=%q", config.RuntimeMode)
		config.RuntimeMode = "test"
	}

	config.PaymentKeysTest = ParsePaymentKeys(config.PaymentKeysTestRaw)
	config.PaymentKeysLive = ParsePaymentKeys(config.PaymentKeysLiveRaw)

	config.WireBeneficiaryIBAN = strings.TrimSpace(config.WireBeneficiaryIBAN)
	config.InternalAPIKey = strings.TrimSpace(config.InternalAPIKey)

	return
}

// ParsePaymentKeys parses a "IBAN=key,IBAN=key" mapping string into a map
// keyed by normalized IBAN (whitespace stripped, uppercased). Malformed pairs
// are skipped with a warning rather than aborting startup; the credential
// router reports missing entries per call with full context.
func ParsePaymentKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return keys
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		iban, key, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			log.Printf("level=warn component=config msg=\"skipping malformed payment key pair\" pair=%q", pair)
			continue
		}
		normalized := domain.NormalizeIBAN(iban)
		if normalized == "" {
			log.Printf("level=warn component=config msg=\"skipping payment key pair with empty iban\"")
			continue
		}
		keys[normalized] = strings.TrimSpace(key)
	}
	return keys
}
