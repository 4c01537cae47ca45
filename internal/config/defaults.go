package config

const (
	defaultLogDir               = "~/.local/share/personid/logs"
	defaultJournalPath          = "~/.local/share/personid/journal.db"
	defaultLockName             = ".personid.lock"
	defaultLogFormat            = "auto"
	defaultLogLevel             = "info"
	defaultResolverWorkers      = 12
	defaultAliasTiebreak        = AliasTiebreakLonger
	defaultConsensusTiebreak    = ConsensusTiebreakTrusted
	defaultLookupTimeoutSeconds = 60
	defaultIgnoreFile           = ".personidignore"
	defaultWatchSettleSeconds   = 5
	defaultNtfyTimeoutSeconds   = 10
	defaultSourceTimeoutSeconds = 15
	defaultSourceMaxRetries     = 3
	defaultSourceUserAgent      = "personid/dev"
)

// Tie-break policy names accepted in [resolver].
const (
	AliasTiebreakLonger  = "longer"
	AliasTiebreakShorter = "shorter"

	ConsensusTiebreakTrusted = "trusted"
	ConsensusTiebreakLexical = "lexical"
)

// Source kinds accepted in [[sources]].
const (
	SourceKindCatalog = "catalog"
	SourceKindHTTP    = "http"
)

// Default returns a Config populated with repository defaults. It has no
// sources; at least one must come from the config file.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
			LockName:    defaultLockName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Resolver: Resolver{
			Workers:              defaultResolverWorkers,
			AliasTiebreak:        defaultAliasTiebreak,
			ConsensusTiebreak:    defaultConsensusTiebreak,
			LookupTimeoutSeconds: defaultLookupTimeoutSeconds,
		},
		Library: Library{
			IgnoreFile:         defaultIgnoreFile,
			WatchSettleSeconds: defaultWatchSettleSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
