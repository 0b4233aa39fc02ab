package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port     int     `yaml:"port"`
		Managers []int64 `yaml:"managers"` // user IDs allowed on /api/admin
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Session struct {
		TTLHours int `yaml:"ttl_hours"`
	} `yaml:"session"`

	Booking struct {
		CancelLeadMinutes int `yaml:"cancel_lead_minutes"`
	} `yaml:"booking"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Reminders struct {
		Enabled       bool    `yaml:"enabled"`
		SendHour      int     `yaml:"send_hour"`
		RatePerSecond float64 `yaml:"rate_per_second"`
	} `yaml:"reminders"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
		SyncIntervalMin int    `yaml:"sync_interval_minutes"`
	} `yaml:"sheets"`

	Audit struct {
		RetentionDays int    `yaml:"retention_days"`
		ExportDir     string `yaml:"export_dir"`
	} `yaml:"audit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/canchapp.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ServerPort() int {
	if c.Server.Port <= 0 {
		return 8080
	}
	return c.Server.Port
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// CancelLeadMinutes is how long before the slot start a reservation may
// still be cancelled. Defaults to two hours.
func (c *Config) CancelLeadMinutes() int {
	if c.Booking.CancelLeadMinutes <= 0 {
		return 120
	}
	return c.Booking.CancelLeadMinutes
}

func (c *Config) ReminderSendHour() int {
	if c.Reminders.SendHour <= 0 || c.Reminders.SendHour > 23 {
		return 9
	}
	return c.Reminders.SendHour
}

func (c *Config) ReminderRate() float64 {
	if c.Reminders.RatePerSecond <= 0 {
		return 1
	}
	return c.Reminders.RatePerSecond
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) SheetsSyncInterval() time.Duration {
	if c.Sheets.SyncIntervalMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Sheets.SyncIntervalMin) * time.Minute
}

func (c *Config) AuditRetention() time.Duration {
	if c.Audit.RetentionDays <= 0 {
		return 365 * 24 * time.Hour
	}
	return time.Duration(c.Audit.RetentionDays) * 24 * time.Hour
}
