package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("MAIL_PROVIDER", "")
	t.Setenv("VERIFICATION_CODE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	require.Equal(t, LedgerRedis, cfg.Ledger.Backend)
	require.Equal(t, MailProviderLog, cfg.Mail.Provider)
	require.Equal(t, 10*time.Minute, cfg.Verification.CodeTTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL())
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "s3cr3t")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "5")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_MINUTES", "60")
	t.Setenv("VERIFICATION_CODE_TTL", "2m")
	t.Setenv("LEDGER_BACKEND", "MEMORY")
	t.Setenv("MAIL_PROVIDER", "ses")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL())
	require.Equal(t, time.Hour, cfg.Auth.RefreshTTL())
	require.Equal(t, 2*time.Minute, cfg.Verification.CodeTTL)
	require.Equal(t, LedgerMemory, cfg.Ledger.Backend)
	require.Equal(t, MailProviderSES, cfg.Mail.Provider)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Auth:         AuthConfig{JWTSecret: "k", AccessTokenTTLMinutes: 1, RefreshTokenTTLMinutes: 2},
			Verification: VerificationConfig{CodeTTL: time.Minute},
			Mail:         MailConfig{Provider: MailProviderLog},
			Ledger:       LedgerConfig{Backend: LedgerMemory},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Auth.RefreshTokenTTLMinutes = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.RefreshTokenTTLMinutes = 0
	cfg.Auth.AccessTokenTTLMinutes = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Ledger.Backend = LedgerPostgres
	require.Error(t, cfg.Validate(), "postgres ledger without DSN")

	cfg = base()
	cfg.Ledger.Backend = "etcd"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Mail.Provider = "pigeon"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Verification.CodeTTL = 0
	require.Error(t, cfg.Validate())
}
