package internal

// Option configures the bookdex server assembled by Run.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the loaded configuration to Run.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
