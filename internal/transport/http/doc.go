// Package http implements the handlers of the local web viewer. Handlers
// stay thin: they parse and validate the request, call the data service and
// render JSON, HTML or PNG.
//
// Errors are answered as RFC 7807 problem documents through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/schema",
//	    "title": "Schema Mismatch",
//	    "status": 422,
//	    "detail": "battery and range: missing required columns [Range_km]",
//	    "instance": "/api/analyses/battery-range"
//	}
//
// Routes:
//
//	GET /                         index page
//	GET /api/dataset              dataset path, rows and columns
//	POST /api/dataset/reload      drop the cached table and read the file again
//	GET /api/regions              distinct regions
//	GET /api/analyses             analysis names
//	GET /api/analyses/{kind}      analysis result, ?region= filters
//	GET /charts/{kind}            chart, ?region= and ?format=html|png
//	GET /artifacts                exported files and charts, ?kind=csv|workbook|chart
//	                              and ?pattern= (file name glob)
//	GET /healthz, /readyz         liveness and readiness
//	GET /metrics                  Prometheus exposition
package http
