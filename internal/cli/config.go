package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aravindh-murugesan/wanderly-go/internal/notifications"
)

// envKeyReplacer maps viper keys to env names: webhook.url -> WANDERLY_WEBHOOK_URL.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Settings is the resolved configuration: flags > env > config file > defaults.
type Settings struct {
	BaseURL  string          `mapstructure:"base_url"`
	Timeout  int             `mapstructure:"timeout"`
	LogLevel string          `mapstructure:"log_level"`
	Webhook  WebhookSettings `mapstructure:"webhook"`
	Wait     WaitSettings    `mapstructure:"wait"`
	Delete   DeleteSettings  `mapstructure:"delete"`
	Serve    ServeSettings   `mapstructure:"serve"`
}

type WebhookSettings struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Verify   bool   `mapstructure:"verify"`
}

// Provider returns the notifications webhook described by the settings.
func (w WebhookSettings) Provider() notifications.Webhook {
	return notifications.Webhook{
		URL:                w.URL,
		Username:           w.Username,
		Password:           w.Password,
		InsecureSkipVerify: !w.Verify,
	}
}

type WaitSettings struct {
	Interval       time.Duration `mapstructure:"interval"`
	ReadyPath      string        `mapstructure:"ready_path"`
	LoginPath      string        `mapstructure:"login_path"`
	Navigator      string        `mapstructure:"navigator"`
	Source         string        `mapstructure:"source"`
	KubeDeployment string        `mapstructure:"kube_deployment"`
	Kubeconfig     string        `mapstructure:"kubeconfig"`
	Headless       bool          `mapstructure:"headless"`
	InstallBrowser bool          `mapstructure:"install_browser"`
}

type DeleteSettings struct {
	Page  string   `mapstructure:"page"`
	Form  int      `mapstructure:"form"`
	All   bool     `mapstructure:"all"`
	List  bool     `mapstructure:"list"`
	Yes   bool     `mapstructure:"yes"`
	Match []string `mapstructure:"match"`
}

type ServeSettings struct {
	Address            string        `mapstructure:"address"`
	Database           string        `mapstructure:"database"`
	Seed               bool          `mapstructure:"seed"`
	Warmup             time.Duration `mapstructure:"warmup"`
	ProbeInterval      time.Duration `mapstructure:"probe_interval"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	SchedulerUIAddress string        `mapstructure:"scheduler_ui_address"`
}

var settings Settings

// bindFlags binds each viper key to the named flag.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// loadSettings reads the optional config file and decodes everything into settings.
func loadSettings() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wanderly")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wanderly"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decodeSettings(viper.GetViper(), &settings)
}

func decodeSettings(v *viper.Viper, out *Settings) error {
	err := v.Unmarshal(out, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}
