// Package main hosts the mediaconv CLI.
//
// Running mediaconv with no arguments converts every matching file under the
// configured root (by default the parent of the program's directory). The
// check, history and config subcommands inspect the environment, the run
// journal and the configuration file. Conversion logic lives in
// internal/conversion; this package only wires configuration, logging, the
// run lock and the journal around it.
package main
