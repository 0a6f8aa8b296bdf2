// Package app assembles the local web viewer: it resolves paths, starts
// telemetry, builds the data and health services, mounts the chi router and
// owns the HTTP server lifecycle.
//
// Usage:
//
//	application, err := app.NewApplication(cfg, logger, app.Options{})
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// The one-shot commands share Bootstrap instead, which builds the logger,
// telemetry and pipeline from the same configuration and tags the context
// with a run id:
//
//	ctx, rt, err := app.Bootstrap(ctx, app.BootstrapOptions{Command: "eda"})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
package app
