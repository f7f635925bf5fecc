package model

// AppConfig holds user preferences and the default settings applied to
// every new routing run.
type AppConfig struct {
	// Default routing settings applied to new runs
	DefaultObstacleMargin          float64 `json:"default_obstacle_margin" mapstructure:"default_obstacle_margin"`
	DefaultElbowOvershoot          float64 `json:"default_elbow_overshoot" mapstructure:"default_elbow_overshoot"`
	DefaultParallelism             int     `json:"default_parallelism" mapstructure:"default_parallelism"`
	DefaultMaxOverlapIterations    int     `json:"default_max_overlap_iterations" mapstructure:"default_max_overlap_iterations"`
	DefaultFailOnUnresolvedOverlap bool    `json:"default_fail_on_unresolved_overlap" mapstructure:"default_fail_on_unresolved_overlap"`

	// Output preferences
	DefaultExportFormats []string `json:"default_export_formats" mapstructure:"default_export_formats"`
	RecentProblems       []string `json:"recent_problems" mapstructure:"recent_problems"`
	Theme                string   `json:"theme" mapstructure:"theme"` // "light", "dark"
}

// MaxRecentProblems caps AppConfig.RecentProblems.
const MaxRecentProblems = 10

// DefaultAppConfig returns an AppConfig matching DefaultSettings.
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultObstacleMargin:          defaults.ObstacleMargin,
		DefaultElbowOvershoot:          defaults.ElbowOvershoot,
		DefaultParallelism:             defaults.Parallelism,
		DefaultMaxOverlapIterations:    defaults.MaxOverlapIterations,
		DefaultFailOnUnresolvedOverlap: defaults.FailOnUnresolvedOverlap,
		DefaultExportFormats:           []string{"json", "svg"},
		RecentProblems:                 []string{},
		Theme:                          "light",
	}
}

// ApplyToSettings copies the defaults from AppConfig into s.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.ObstacleMargin = c.DefaultObstacleMargin
	s.ElbowOvershoot = c.DefaultElbowOvershoot
	if c.DefaultParallelism > 0 {
		s.Parallelism = c.DefaultParallelism
	}
	if c.DefaultMaxOverlapIterations > 0 {
		s.MaxOverlapIterations = c.DefaultMaxOverlapIterations
	}
	s.FailOnUnresolvedOverlap = c.DefaultFailOnUnresolvedOverlap
}

// AddRecentProblem moves path to the front of the recent list.
func (c *AppConfig) AddRecentProblem(path string) {
	out := []string{path}
	for _, p := range c.RecentProblems {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > MaxRecentProblems {
		out = out[:MaxRecentProblems]
	}
	c.RecentProblems = out
}
