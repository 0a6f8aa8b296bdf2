// Package services wires the dataset, analytics and export packages into the
// stages run by the command-line tools and the web viewer.
//
// Pipeline wraps each stage (load, split, export, one span per analysis) in
// an OpenTelemetry span and records the toolkit metrics. DataService keeps
// one loaded Table in memory for the viewer; Tables are immutable, so
// concurrent requests share it without locking.
//
//	p := services.NewPipeline(cfg, logger, providers.Tracer, metrics)
//	t, err := p.Load(ctx, cfg.Input.Path)
//	if err != nil {
//	    return err
//	}
//	result, err := p.Analyze(ctx, t, analytics.KindModelShare, "")
package services
