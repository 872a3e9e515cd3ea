package config

// Config is the top-level YAML structure.
type Config struct {
	Logs     []LogConfig `yaml:"logs"`
	Watchers []Watcher   `yaml:"watchers"`
}

// LogConfig describes one log output. Several entries compose into a
// fan-out sink; each entry filters and formats records independently.
type LogConfig struct {
	Output       string   `yaml:"output"`        // "std", "stdout", "stderr" or a file path
	OutputFormat string   `yaml:"output_format"` // "text" | "json"
	Level        string   `yaml:"level"`
	TextFormat   string   `yaml:"text_format"` // placeholder template, e.g. "{level}: {message}"
	DateFormat   string   `yaml:"date_format"`
	LevelFilters []string `yaml:"level_filters"` // exact levels allowed through
	NameFilters  []string `yaml:"name_filters"`  // watcher name suffixes allowed through
	MsgFilters   []string `yaml:"msg_filters"`   // message regexps allowed through
}

// Watcher is one independently scheduled poll/evaluate/act unit.
type Watcher struct {
	Name       string  `yaml:"name"`
	Interval   float64 `yaml:"interval"` // seconds
	Tolerance  int     `yaml:"tolerance"`
	Expression string  `yaml:"expression"`
	Fetches    []Group `yaml:"fetches"`
	Executes   []Group `yaml:"executes"`
}

// Group is an ordered chain of actions producing one result set.
// Fetch groups are referenced by expressions as fetch_<index> in
// declaration order; the name is for logs and uniqueness only.
type Group struct {
	Name           string   `yaml:"name"`
	ChainStrategy  string   `yaml:"chain_strategy"`  // continue | success_stop | failure_stop
	ResultStrategy string   `yaml:"result_strategy"` // merge | overwrite
	ErrorStrategy  string   `yaml:"error_strategy"`  // skip | reset | fetch_reset | execute_reset
	Actions        []Action `yaml:"actions"`
}

// Action is one timed, retried plugin invocation. Any YAML keys beyond
// the four control fields are collected into Params and handed to the
// plugin unchanged.
type Action struct {
	Plugin  string  `yaml:"plugin"`
	Timeout float64 `yaml:"timeout"` // seconds, per attempt
	Retries int     `yaml:"retries"` // additional attempts after the first
	Delay   float64 `yaml:"delay"`   // seconds between attempts

	Params map[string]interface{} `yaml:",inline"`
}

// Chain strategies.
const (
	ChainContinue    = "continue"
	ChainSuccessStop = "success_stop"
	ChainFailureStop = "failure_stop"
)

// Result strategies.
const (
	ResultMerge     = "merge"
	ResultOverwrite = "overwrite"
)

// Error strategies.
const (
	ErrorSkip         = "skip"
	ErrorReset        = "reset"
	ErrorFetchReset   = "fetch_reset"
	ErrorExecuteReset = "execute_reset"
)

// Defaults applied by the loader when a field is absent.
const (
	DefaultLogOutput       = "std"
	DefaultLogOutputFormat = "text"
	DefaultLogLevel        = "INFO"
	DefaultLogDateFormat   = "2006-01-02 15:04:05"
	DefaultInterval        = 120
	DefaultTolerance       = 0
	DefaultChainStrategy   = ChainContinue
	DefaultResultStrategy  = ResultMerge
	DefaultErrorStrategy   = ErrorSkip
	DefaultTimeout         = 60
	DefaultRetries         = 0
	DefaultDelay           = 1
)
