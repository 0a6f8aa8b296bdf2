package config

// Application constants
const (
	AppName    = "evsales"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment overrides, e.g. EVSALES_INPUT_PATH.
	EnvPrefix = "EVSALES"

	DefaultInputFile    = "tesla_ev_sales.csv"
	DefaultExportDir    = "exports"
	DefaultExportPrefix = "tesla_"
	DefaultChartsDir    = "charts"
	DefaultLogsDir      = "logs"
)

// DefaultConfigLocations are searched in order when no config path is given.
var DefaultConfigLocations = []string{
	"config.yaml",
	"configs/config.yaml",
	"../configs/config.yaml",
	"../../configs/config.yaml",
}
