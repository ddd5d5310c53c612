package config

import "flag"

// Flags holds the command-line overrides shared by the gojovmm binaries.
type Flags struct {
	Path      string
	PageSize  int
	NumPages  int
	NumFrames int
	LogLevel  string
}

// BindFlags registers the shared flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Path, "config", "", "Path to a YAML configuration file")
	fs.IntVar(&f.PageSize, "page-size", DefaultPageSize, "Page size in bytes")
	fs.IntVar(&f.NumPages, "pages", DefaultNumPages, "Number of virtual pages")
	fs.IntVar(&f.NumFrames, "frames", DefaultNumFrames, "Number of physical frames")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return f
}

// Resolve loads the configuration file, or the defaults when no file was
// given, then applies the flags that were explicitly set on fs. fs must have
// been parsed.
func (f *Flags) Resolve(fs *flag.FlagSet) (Config, error) {
	cfg := Default()
	if f.Path != "" {
		var err error
		if cfg, err = Load(f.Path); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "page-size":
			cfg.Memory.PageSize = f.PageSize
		case "pages":
			cfg.Memory.NumPages = f.NumPages
		case "frames":
			cfg.Memory.NumFrames = f.NumFrames
		case "log-level":
			cfg.Logger.Level = f.LogLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
