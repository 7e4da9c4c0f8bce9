package config

const (
	defaultSDRoot            = "~/.local/share/citra-emu/sdmc"
	defaultStateDir          = "~/.local/share/cifinalize"
	defaultLogDir            = "~/.local/share/cifinalize/logs"
	defaultPendingPath       = "cifinish.bin"
	defaultVersionPolicy     = "tolerant"
	defaultExpectedVersion   = 3
	defaultTitleMedia        = "sd"
	defaultRefreshIntervalMS = 16
	defaultColor             = "auto"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SDRoot:   defaultSDRoot,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Pending: Pending{
			Path:            defaultPendingPath,
			VersionPolicy:   defaultVersionPolicy,
			ExpectedVersion: defaultExpectedVersion,
		},
		Finalize: Finalize{
			DeleteOnSuccess: true,
			TitleMedia:      []string{defaultTitleMedia},
		},
		Console: Console{
			WaitForExit:       true,
			RefreshIntervalMS: defaultRefreshIntervalMS,
			Color:             defaultColor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
