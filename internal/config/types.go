package config

// Config is the top-level pixelfit configuration, corresponding to .pixelfit.yml.
type Config struct {
	// PageOrigin is where the pages are considered to be served from. A
	// localhost origin selects the local backend.
	PageOrigin     string `yaml:"page_origin" koanf:"page_origin"`
	ProductionBase string `yaml:"production_base" koanf:"production_base"`
	// APIBase, when set, bypasses resolution and is used for every page.
	APIBase   string       `yaml:"api_base,omitempty" koanf:"api_base"`
	Policies  []PagePolicy `yaml:"policies,omitempty" koanf:"policies"`
	StateDB   string       `yaml:"state_db" koanf:"state_db"`
	OutputDir string       `yaml:"output_dir" koanf:"output_dir"`
	// TimeoutSeconds bounds a single backend request. Zero means no limit.
	TimeoutSeconds int             `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	Workbench      WorkbenchConfig `yaml:"workbench" koanf:"workbench"`
}

// WorkbenchConfig holds settings for `pixelfit serve`.
type WorkbenchConfig struct {
	Addr        string `yaml:"addr" koanf:"addr"`
	OpenBrowser bool   `yaml:"open_browser" koanf:"open_browser"`
}

// PagePolicy overrides the backend policy of one page.
type PagePolicy struct {
	Page   string `yaml:"page" koanf:"page"`
	Policy string `yaml:"policy" koanf:"policy"`
}
