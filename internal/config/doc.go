// Package config loads the evsales configuration.
//
// # Configuration Sources
//
// Values are layered in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML file
//  3. Default values (lowest priority)
//
// When no file is named, Load searches DefaultConfigLocations and uses the
// first one that exists.
//
// # Environment Variables
//
// Overrides use the EVSALES_ prefix followed by the section and field:
//
//	EVSALES_INPUT_PATH=data/tesla_ev_sales.csv
//	EVSALES_CHARTS_FORMAT=html
//	EVSALES_LOGGING_LEVEL=debug
//	EVSALES_SERVER_RATE_LIMIT_RPS=5
//
// # Example File
//
//	input:
//	  path: tesla_ev_sales.csv
//	columns:
//	  estimated_deliveries: Deliveries
//	export:
//	  out_dir: exports
//	  prefix: tesla_
//	charts:
//	  format: png
//	  width: 12
//	  height: 6
//
// Columns maps each record field to its header in the input file; Schema
// turns it into the mapping used by the loader and exporters.
package config
