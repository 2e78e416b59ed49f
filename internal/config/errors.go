package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ResolveTarget() and
// provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no target is specified.
	// This error occurs when neither the config file nor a positional
	// argument provides a target.
	ErrNoTarget = errors.New("no target specified: provide a URL or a target name from the config file")

	// ErrUnknownTarget is returned when a requested target name is not
	// defined in the configuration file.
	ErrUnknownTarget = errors.New("unknown target: not defined in the configuration file")

	// ErrNoSeeds is returned when a target has no seed URLs to start from.
	ErrNoSeeds = errors.New("target has no seed URLs")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate fetch failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidInactivityTimeout is returned when the watchdog window is
	// not positive. A non-positive window would time out every run.
	ErrInvalidInactivityTimeout = errors.New("invalid inactivity timeout: must be positive")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and means seeds only.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page quota is not positive.
	// A quota of zero would mean no crawling at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidDomainQuota is returned when the per-domain quota is
	// negative. Use 0 for no per-domain limit.
	ErrInvalidDomainQuota = errors.New("invalid per-domain quota: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent crawls, effectively
	// stopping the process.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSaveFormat is returned when the save format is neither
	// "html" nor "markdown".
	ErrInvalidSaveFormat = errors.New("invalid save format: must be \"html\" or \"markdown\"")

	// ErrInvalidResumePolicy is returned when the resume policy is neither
	// "until-first" nor "all".
	ErrInvalidResumePolicy = errors.New("invalid resume policy: must be \"until-first\" or \"all\"")

	// ErrInvalidFetchMode is returned when the fetch mode is neither
	// "static" nor "browser".
	ErrInvalidFetchMode = errors.New("invalid fetch mode: must be \"static\" or \"browser\"")
)
