// Package files discovers the artifacts the commands leave on disk: region
// CSV files and workbooks under the export directory, and saved charts.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	artifacts, err := discovery.FindArtifacts(paths.ExportDir)
//	latest, ok := files.GetLatestFile(artifacts)
package files
