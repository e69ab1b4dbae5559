package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database

	Gateway  Gateway  `envPrefix:"GATEWAY_"`
	WhatsApp WhatsApp `envPrefix:"WHATSAPP_"`
	SMS      SMS      `envPrefix:"SMS_"`
	Business Business `envPrefix:"BUSINESS_"`
	Session  Session  `envPrefix:"SESSION_"`
	Admin    Admin    `envPrefix:"ADMIN_"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite | mysql
	URL    string `env:"DATABASE_URL" envDefault:"kwetu.db"`
	Seed   bool   `env:"DB_SEED" envDefault:"true"`
}

// Gateway is the mobile-money payment processor (Flutterwave v3 compatible).
type Gateway struct {
	BaseApiURL   string        `env:"BASE_API_URL" envDefault:"https://api.flutterwave.com/v3"`
	SecretKey    string        `env:"SECRET_KEY"`
	WebhookHash  string        `env:"WEBHOOK_HASH"`
	RedirectURL  string        `env:"REDIRECT_URL"`
	Currency     string        `env:"CURRENCY" envDefault:"TZS"`
	DefaultEmail string        `env:"DEFAULT_EMAIL" envDefault:"orders@kwetupizza.co.tz"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type WhatsApp struct {
	BaseApiURL    string        `env:"BASE_API_URL" envDefault:"https://graph.facebook.com/v19.0"`
	AccessToken   string        `env:"ACCESS_TOKEN"`
	PhoneNumberID string        `env:"PHONE_NUMBER_ID"`
	VerifyToken   string        `env:"VERIFY_TOKEN"`
	RatePerSecond float64       `env:"RATE_PER_SECOND" envDefault:"20"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type SMS struct {
	BaseApiURL string        `env:"BASE_API_URL"`
	APIKey     string        `env:"API_KEY"`
	SecretKey  string        `env:"SECRET_KEY"`
	SenderID   string        `env:"SENDER_ID" envDefault:"KWETUPIZZA"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Business struct {
	Name                  string `env:"NAME" envDefault:"Kwetu Pizza"`
	AdminPhone            string `env:"ADMIN_PHONE"`
	SupportPhone          string `env:"SUPPORT_PHONE" envDefault:"+255 700 000 000"`
	LoyaltyAmountPerPoint int64  `env:"LOYALTY_AMOUNT_PER_POINT" envDefault:"1000"`
}

type Session struct {
	TTL time.Duration `env:"TTL" envDefault:"24h"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
