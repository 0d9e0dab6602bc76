// Package app contains the core application logic: loading the run
// configuration, instantiating modules, merging trait declarations into
// population layouts, and driving the update loop. It is decoupled from any
// specific entrypoint like the CLI.
package app
