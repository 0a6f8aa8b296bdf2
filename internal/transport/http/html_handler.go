package http

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"evsales/internal/analytics"
	apierrors "evsales/internal/errors"
	"evsales/internal/report"
	"evsales/internal/services"
)

// html/template escapes region names inside the query string.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>EV Sales Viewer</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        table { border-collapse: collapse; }
        td, th { padding: 4px 12px; text-align: left; }
        .muted { color: #6c757d; }
    </style>
</head>
<body>
    <h1>EV Sales Viewer</h1>
    <p class="muted">{{.Info.Path}}: {{.Info.Rows}} rows, loaded {{.LoadedAt}}</p>
    <h2>Analyses</h2>
    <table>
        <tr><th>Analysis</th><th>All regions</th>{{range .Regions}}<th>{{.}}</th>{{end}}</tr>
        {{range .Analyses}}{{$kind := .Kind}}
        <tr>
            <td title="{{.Purpose}}">{{.Title}}</td>
            <td><a href="/charts/{{$kind}}">chart</a> · <a href="/api/analyses/{{$kind}}">json</a></td>
            {{range $.Regions}}<td><a href="/charts/{{$kind}}?region={{.}}">chart</a></td>{{end}}
        </tr>
        {{end}}
    </table>
    <p class="muted"><a href="/api/dataset">dataset</a> · <a href="/api/regions">regions</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`))

type indexAnalysis struct {
	Kind    analytics.Kind
	Title   string
	Purpose string
}

type indexPage struct {
	Info     services.DatasetInfo
	LoadedAt string
	Regions  []string
	Analyses []indexAnalysis
}

// ServeIndex serves the landing page linking every analysis and region
func ServeIndex(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := service.Info(r.Context())
		if err != nil {
			errorHandler.HandleError(w, r, err)
			return
		}
		regions, err := service.Regions(r.Context())
		if err != nil && !errors.Is(err, services.ErrNoRegions) {
			errorHandler.HandleError(w, r, err)
			return
		}

		page := indexPage{
			Info:     info,
			LoadedAt: info.LoadedAt.Format(time.DateTime),
			Regions:  regions,
		}
		for _, kind := range analytics.Kinds {
			a := indexAnalysis{Kind: kind, Title: string(kind)}
			if n, ok := report.NarrativeFor(kind); ok {
				a.Title, a.Purpose = n.Title, n.Purpose
			}
			page.Analyses = append(page.Analyses, a)
		}

		var buf bytes.Buffer
		if err := indexTemplate.Execute(&buf, page); err != nil {
			logger.ErrorContext(r.Context(), "index render failed", slog.String("error", err.Error()))
			errorHandler.HandleError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}
