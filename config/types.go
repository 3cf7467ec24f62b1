package config

// Config raporty bot configuration
type Config struct {
	Mode          string   `json:"mode,omitempty" env:"RAPORTY_ENV" envDefault:"production"`      // production/development
	Host          string   `json:"host,omitempty" env:"RAPORTY_HOST" envDefault:"0.0.0.0"`        // service listen address
	Port          int      `json:"port,omitempty" env:"PORT" envDefault:"8080"`                   // service listen port
	DataRoot      string   `json:"data_root,omitempty" env:"DATA_DIR" envDefault:"."`             // workbook, presets and backups directory
	BackupKeep    int      `json:"backup_keep,omitempty" env:"BACKUP_KEEP" envDefault:"20"`       // rotating workbook backups to keep
	QueueSize     int      `json:"queue_size,omitempty" env:"RAPORTY_QUEUE_SIZE" envDefault:"32"` // pending report request bound
	AdminIDs      []int64  `json:"admin_ids,omitempty" env:"ADMIN_IDS" envSeparator:","`          // telegram user ids allowed to run /export
	Schedules     []string `json:"schedules,omitempty" env:"RAPORTY_SCHEDULES" envSeparator:"|"`  // kind=cron entries, e.g. daily=0 18 * * *
	Log           string   `json:"log,omitempty" env:"RAPORTY_LOG"`                               // log file path
	LogMode       string   `json:"log_mode,omitempty" env:"RAPORTY_LOG_MODE" envDefault:"TEXT"`   // JSON|TEXT
	LogMaxSize    int      `json:"log_max_size,omitempty" env:"RAPORTY_LOG_MAX_SIZE" envDefault:"100"`
	LogMaxBackups int      `json:"log_max_backups,omitempty" env:"RAPORTY_LOG_MAX_BACKUPS" envDefault:"10"`
	LogMaxAge     int      `json:"log_max_age,omitempty" env:"RAPORTY_LOG_MAX_AGE" envDefault:"30"`
	Telegram      Telegram `json:"telegram,omitempty"`
	SMTP          SMTP     `json:"smtp,omitempty"`
	S3            S3       `json:"s3,omitempty"`
	Delivery      Delivery `json:"delivery,omitempty"`
}

// Telegram the telegram transport config
type Telegram struct {
	Token      string `json:"-" env:"TELEGRAM_TOKEN"`                        // bot token, required to enable the bot
	WebhookURL string `json:"webhook_url,omitempty" env:"WEBHOOK_URL"`       // public base url; polling mode when empty
	ChatID     int64  `json:"chat_id,omitempty" env:"TELEGRAM_REPORT_CHAT"`  // destination chat for scheduled reports
}

// SMTP the mail delivery config
type SMTP struct {
	Host     string   `json:"host,omitempty" env:"SMTP_HOST"`
	Port     int      `json:"port,omitempty" env:"SMTP_PORT" envDefault:"587"`
	Username string   `json:"username,omitempty" env:"SMTP_USERNAME"`
	Password string   `json:"-" env:"SMTP_PASSWORD"`
	From     string   `json:"from,omitempty" env:"SMTP_FROM"`
	To       []string `json:"to,omitempty" env:"SMTP_TO" envSeparator:","`
}

// S3 the object storage delivery config
type S3 struct {
	Endpoint string `json:"endpoint,omitempty" env:"S3_ENDPOINT"`
	Region   string `json:"region,omitempty" env:"S3_REGION" envDefault:"auto"`
	Key      string `json:"-" env:"S3_KEY"`
	Secret   string `json:"-" env:"S3_SECRET"`
	Bucket   string `json:"bucket,omitempty" env:"S3_BUCKET"`
	Prefix   string `json:"prefix,omitempty" env:"S3_PREFIX" envDefault:"raporty"`
}

// Delivery retry policy for destinations
type Delivery struct {
	Retries int `json:"retries,omitempty" env:"RAPORTY_DELIVERY_RETRIES" envDefault:"3"` // transient failure retries per artifact
	Backoff int `json:"backoff,omitempty" env:"RAPORTY_DELIVERY_BACKOFF" envDefault:"2"` // first retry delay in seconds, doubled each retry
	Timeout int `json:"timeout,omitempty" env:"RAPORTY_DELIVERY_TIMEOUT" envDefault:"30"`
}
