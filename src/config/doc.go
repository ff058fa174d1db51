// Package config defines the configuration of a streamgate importer.
//
// Regardless of how the importer is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// configuration options, streamgate relies on a data directory, defined by
// Config.DataDir, where it looks for:
//
//  streamgate.toml // (optional) configuration file, any format viper reads.
//  badger_db/ // the database, unless Config.DatabaseDir points elsewhere.
//  priv_key // (optional) a PEM private key used by the sign command.
package config
