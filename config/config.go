package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Session Session
	Auth    Auth
	Lang    Lang
	Cors    Cors
	Rate    Rate
	Rates   Rates
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:4000"`
	Prefix          string        `conf:"default:/api"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	Path       string `conf:"default:data/live.sqlite3"`
	LogQueries bool   `conf:"default:false"`
	Migrate    bool   `conf:"default:true"`
}

type Session struct {
	Lifetime    time.Duration `conf:"default:24h"`
	IdleTimeout time.Duration `conf:"default:2h"`
	CookieName  string        `conf:"default:framecart_session"`
}

// Auth names the columns the generic REST layer treats as privileged.
type Auth struct {
	UserTable      string   `conf:"default:users"`
	RoleField      string   `conf:"default:userRole"`
	AdminRole      string   `conf:"default:admin"`
	OwnerField     string   `conf:"default:userId"`
	PasswordFields []string `conf:"default:password"`
}

type Lang struct {
	Default string `conf:"default:en"`
}

type Cors struct {
	Origin string
}

type Rate struct {
	Burst    int           `conf:"default:20"`
	Interval time.Duration `conf:"default:100ms"`
	Expiry   time.Duration `conf:"default:10m"`
}

type Rates struct {
	URL        string        `conf:"default:https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/usd.json"`
	Currencies []string      `conf:"default:nok;sek"`
	Timeout    time.Duration `conf:"default:5s"`
}
