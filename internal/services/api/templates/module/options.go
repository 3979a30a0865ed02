package module

import (
	"time"

	"armvalidator/internal/adapters/azure"
	"armvalidator/internal/platform/config"
)

// Options are read once at startup
type Options struct {
	ResourceGroupPrefix string
	GitHubRepo          string
	GitHubToken         string
	GitHubAPIURL        string
	GitHubTimeout       time.Duration

	SSHKeyIndicator   string
	SSHPublicKey      string
	PasswordIndicator string

	KeepAlive     time.Duration
	ArtifactDir   string
	MaxBodyBytes  int64
	DeleteTimeout time.Duration
	LedgerTimeout time.Duration

	AzureBin             string
	AzureSubscription    string
	AzureValidationGroup string
	AzureLocation        string
	AzureTenantID        string
	AzureClientID        string
	AzureClientSecret    string
	// AzureRunner replaces os/exec; nil in production
	AzureRunner azure.Runner
}

// FromConfig reads the module options from env
func FromConfig(cfg config.Conf) Options {
	az := cfg.Prefix("AZURE_")
	return Options{
		ResourceGroupPrefix: cfg.MayString("RESOURCE_GROUP_NAME_PREFIX", "ci"),
		GitHubRepo:          cfg.MayString("GITHUB_REPO", "Azure/azure-quickstart-templates"),
		GitHubToken:         cfg.MayString("GITHUB_TOKEN", ""),
		GitHubAPIURL:        cfg.MayURL("GITHUB_API_URL", ""),
		GitHubTimeout:       cfg.MayDuration("GITHUB_TIMEOUT", 10*time.Second),

		SSHKeyIndicator:   cfg.MayString("SSH_KEY_REPLACE_INDICATOR", "GEN-SSH-PUB-KEY"),
		SSHPublicKey:      cfg.MayRaw("SSH_PUBLIC_KEY", ""),
		PasswordIndicator: cfg.MayString("PASSWORD_REPLACE_INDICATOR", "GEN-PASSWORD"),

		KeepAlive:     cfg.MayDuration("KEEPALIVE_INTERVAL", 10*time.Second),
		ArtifactDir:   cfg.MayDir("ARTIFACT_DIR", ""),
		MaxBodyBytes:  cfg.MayInt64("MAX_BODY_BYTES", 8<<20),
		DeleteTimeout: cfg.MayDuration("DELETE_TIMEOUT", 0),
		LedgerTimeout: cfg.MayDuration("LEDGER_STATEMENT_TIMEOUT", 3*time.Second),

		AzureBin:             az.MayString("CLI", "az"),
		AzureSubscription:    az.MayString("SUBSCRIPTION_ID", ""),
		AzureValidationGroup: az.MayString("VALIDATION_RESOURCE_GROUP", ""),
		AzureLocation:        az.MayString("LOCATION", "westus"),
		AzureTenantID:        az.MayString("TENANT_ID", ""),
		AzureClientID:        az.MayString("CLIENT_ID", ""),
		AzureClientSecret:    az.MayRaw("CLIENT_SECRET", ""),
	}
}
