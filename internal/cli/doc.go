// Package cli implements the meshplan command line.
//
// Every command loads the config once, builds a zap logger from it, and
// writes its result to the command's output stream: human-readable colored
// text by default, or YAML/JSON with -o or the global --json flag. Logs go
// to stderr.
//
// discover, plan and apply also record run metrics when --metrics-file is
// set, for a node exporter textfile collector.
package cli
