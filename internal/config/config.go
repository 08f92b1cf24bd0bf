package config

// Config is the root application configuration.
type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"development"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Bot      BotConfig      `yaml:"bot"`
	Reminder ReminderConfig `yaml:"reminder"`
	Speech   SpeechConfig   `yaml:"speech"`
	Study    StudyConfig    `yaml:"study"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// DatabaseConfig holds storage settings. An empty DSN with the sqlite3
// driver stores the database file under DataDir.
type DatabaseConfig struct {
	Driver  string `yaml:"driver"   env:"DB_DRIVER"   env-default:"sqlite3"`
	DSN     string `yaml:"dsn"      env:"DB_DSN"`
	DataDir string `yaml:"data_dir" env:"DB_DATA_DIR" env-default:"./data"`
}

// BotConfig holds Telegram settings.
type BotConfig struct {
	Enabled bool   `yaml:"enabled"  env:"BOT_ENABLED"        env-default:"true"`
	Token   string `yaml:"token"    env:"TELEGRAM_BOT_TOKEN"`
	OwnerID int64  `yaml:"owner_id" env:"BOT_OWNER_ID"`
	Debug   bool   `yaml:"debug"    env:"BOT_DEBUG"          env-default:"false"`
}

// ReminderConfig holds the daily reminder settings.
type ReminderConfig struct {
	Enabled  bool   `yaml:"enabled"  env:"REMINDER_ENABLED"  env-default:"true"`
	Hour     int    `yaml:"hour"     env:"REMINDER_HOUR"     env-default:"9"`
	Timezone string `yaml:"timezone" env:"REMINDER_TIMEZONE" env-default:"UTC"`
}

// SpeechConfig holds text-to-speech defaults.
type SpeechConfig struct {
	Locale string  `yaml:"locale" env:"SPEECH_LOCALE" env-default:"en-US"`
	Rate   float64 `yaml:"rate"   env:"SPEECH_RATE"   env-default:"0.9"`
}

// StudyConfig holds study session settings.
type StudyConfig struct {
	MasteredQuota int `yaml:"mastered_quota" env:"STUDY_MASTERED_QUOTA" env-default:"2"`
}
