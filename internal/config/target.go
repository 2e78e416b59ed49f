package config

// TargetConfig holds per-target configuration from the .sitescan file.
// This allows customizing crawl behavior per website.
type TargetConfig struct {
	// Seeds are the URLs the crawl starts from.
	Seeds []string `yaml:"seeds,omitempty"`

	// AllowedDomains restricts crawling to matching hosts. Each entry is
	// a host with an optional path prefix ("example.com/docs"). An empty
	// list admits every URL not matched by DeniedURLs.
	AllowedDomains []string `yaml:"allowedDomains,omitempty"`

	// DeniedURLs are substrings; any URL containing one is skipped.
	// Deny rules win over allow rules.
	DeniedURLs []string `yaml:"deniedURLs,omitempty"`

	// Depth overrides the global crawl depth for this target.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page quota for this target.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// MaxPagesPerDomain overrides the global per-domain quota.
	// If zero, the global MaxPagesPerDomain is used.
	MaxPagesPerDomain int `yaml:"maxPagesPerDomain,omitempty"`

	// SaveFormat overrides the global artifact format ("html" or "markdown").
	SaveFormat string `yaml:"saveFormat,omitempty"`

	// Headers are custom HTTP headers to include in requests to this target.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie to use when crawling this target.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Login configures a best-effort login before crawling.
	// Requires the browser fetch mode.
	Login *LoginConfig `yaml:"login,omitempty"`
}

// LoginConfig describes how to log in to a target before crawling.
// The browser fetcher fills the form identified by the CSS selectors,
// submits it, and verifies success by checking the post-login URL.
type LoginConfig struct {
	// URL is the login page URL.
	URL string `yaml:"url"`

	// Username is the account name to type into the username field.
	Username string `yaml:"username"`

	// Password is the account password. It is masked in all log output.
	Password string `yaml:"password"`

	// UsernameSelector is the CSS selector of the username input.
	UsernameSelector string `yaml:"usernameSelector"`

	// PasswordSelector is the CSS selector of the password input.
	PasswordSelector string `yaml:"passwordSelector"`

	// SubmitSelector is the CSS selector of the submit control.
	SubmitSelector string `yaml:"submitSelector"`

	// SuccessMarkers are substrings checked against the post-login URL.
	// Any match means the login succeeded. An empty list accepts any
	// navigation away from the login URL.
	SuccessMarkers []string `yaml:"successMarkers,omitempty"`

	// MaxAttempts is the number of login tries before giving up.
	// If zero, a single attempt is made.
	MaxAttempts int `yaml:"maxAttempts,omitempty"`
}

// File represents the structure of the .sitescan configuration file.
type File struct {
	// Targets maps target names to their configurations.
	// Keys are free-form names used on the command line (e.g., "example").
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`

	// Defaults contains default target configuration applied to all
	// targets unless overridden in the target-specific configuration.
	Defaults TargetConfig `yaml:"defaults,omitempty"`
}

// GetTargetConfig returns the configuration for a specific target name.
// It merges the target-specific configuration with defaults.
func (cf *File) GetTargetConfig(name string) TargetConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with target-specific configuration if present
	if tc, ok := cf.Targets[name]; ok {
		if len(tc.Seeds) > 0 {
			result.Seeds = tc.Seeds
		}
		if len(tc.AllowedDomains) > 0 {
			result.AllowedDomains = tc.AllowedDomains
		}
		if len(tc.DeniedURLs) > 0 {
			result.DeniedURLs = tc.DeniedURLs
		}
		if tc.Depth != 0 {
			result.Depth = tc.Depth
		}
		if tc.MaxPages != 0 {
			result.MaxPages = tc.MaxPages
		}
		if tc.MaxPagesPerDomain != 0 {
			result.MaxPagesPerDomain = tc.MaxPagesPerDomain
		}
		if tc.SaveFormat != "" {
			result.SaveFormat = tc.SaveFormat
		}
		if len(tc.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range tc.Headers {
				result.Headers[k] = v
			}
		}
		if tc.Cookie != "" {
			result.Cookie = tc.Cookie
		}
		if tc.Login != nil {
			result.Login = tc.Login
		}
	}

	return result
}

// Target is the fully resolved runtime configuration for one crawl run.
// It combines the global Config, the file's defaults, and the target's
// own section, so the crawler never consults the raw layers.
type Target struct {
	// Name is the target name, also used as its artifact directory.
	Name string

	// Seeds are the URLs the crawl starts from.
	Seeds []string

	// AllowedDomains restricts crawling to matching hosts.
	AllowedDomains []string

	// DeniedURLs are substring deny rules. Deny wins over allow.
	DeniedURLs []string

	// MaxDepth is the BFS depth bound for this run.
	MaxDepth int

	// MaxPages is the page quota for this run.
	MaxPages int

	// MaxPagesPerDomain is the per-domain quota. Zero means unlimited.
	MaxPagesPerDomain int

	// SaveFormat is the artifact format for this run.
	SaveFormat string

	// Headers are extra HTTP headers for every request.
	Headers map[string]string

	// Cookie is an HTTP cookie sent with every request.
	Cookie string

	// Login is the optional login step configuration.
	Login *LoginConfig
}

// ResolveTarget builds the runtime Target for a target name.
// The name must be defined in the loaded configuration file; the crawl
// command synthesizes config entries for raw URL arguments beforehand.
// Returns ErrUnknownTarget for undefined names and ErrNoSeeds when the
// merged configuration has no seed URLs.
func (c *Config) ResolveTarget(name string) (*Target, error) {
	if c.TargetConfigs == nil {
		return nil, ErrUnknownTarget
	}
	if _, ok := c.TargetConfigs.Targets[name]; !ok {
		return nil, ErrUnknownTarget
	}

	tc := c.TargetConfigs.GetTargetConfig(name)
	if len(tc.Seeds) == 0 {
		return nil, ErrNoSeeds
	}

	target := &Target{
		Name:              name,
		Seeds:             tc.Seeds,
		AllowedDomains:    tc.AllowedDomains,
		DeniedURLs:        tc.DeniedURLs,
		MaxDepth:          c.MaxDepth,
		MaxPages:          c.MaxPages,
		MaxPagesPerDomain: c.MaxPagesPerDomain,
		SaveFormat:        c.SaveFormat,
		Headers:           tc.Headers,
		Cookie:            tc.Cookie,
		Login:             tc.Login,
	}

	// Target sections override global values only when set
	if tc.Depth != 0 {
		target.MaxDepth = tc.Depth
	}
	if tc.MaxPages != 0 {
		target.MaxPages = tc.MaxPages
	}
	if tc.MaxPagesPerDomain != 0 {
		target.MaxPagesPerDomain = tc.MaxPagesPerDomain
	}
	if tc.SaveFormat != "" {
		target.SaveFormat = tc.SaveFormat
	}

	return target, nil
}
