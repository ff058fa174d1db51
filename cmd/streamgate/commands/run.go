package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mosaicnetworks/streamgate/src/config"
	"github.com/mosaicnetworks/streamgate/src/importer"
	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/service"
	"github.com/mosaicnetworks/streamgate/src/store"
)

//NewRunCmd returns the command that starts the importer
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the importer",
		PreRunE: loadConfig,
		RunE:    runImporter,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runImporter(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, sink, err := openStores(_config, logger)
	if err != nil {
		return err
	}

	objects, err := objectstore.New(ctx, _config.ObjectStore(), logger.WithField("prefix", "objectstore"))
	if err != nil {
		st.Close()
		return errors.Wrap(err, "opening object store")
	}

	imp, err := importer.NewImporter(_config, st, sink, objects)
	if err != nil {
		st.Close()
		return errors.Wrap(err, "creating importer")
	}

	if err := imp.Init(); err != nil {
		imp.Shutdown()
		return errors.Wrap(err, "initializing importer")
	}

	if !_config.NoService {
		serviceServer := service.NewService(_config.ServiceAddr, imp, logger.WithField("prefix", "service"))
		go serviceServer.Serve()
	}

	imp.RunAsync(ctx)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	sig := <-signalCh

	logger.WithField("signal", sig.String()).Info("Shutting down")
	cancel()
	imp.Shutdown()

	return nil
}

// openStores returns the durable state store and the sink of the imported
// content.
func openStores(conf *config.Config, logger *logrus.Entry) (store.Store, store.Sink, error) {
	if !conf.Store {
		var sink store.Sink = store.NewInmemSink()
		if conf.Sink == config.SinkLog {
			sink = store.NewLogSink(logger.WithField("prefix", "sink"))
		}
		return store.NewInmemStore(), sink, nil
	}

	bs, err := store.NewBadgerStore(conf.DatabaseDir, logger.WithField("prefix", "badger"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening database %s", conf.DatabaseDir)
	}

	if conf.Sink == config.SinkLog {
		return bs, store.NewLogSink(logger.WithField("prefix", "sink")), nil
	}
	return bs, bs.Sink(), nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write logs to this file")

	// Streams
	cmd.Flags().StringSlice("streams", _config.Streams, "Streams to import: record, balance")
	cmd.Flags().Int64("shard", _config.Shard, "Shard of the network")
	cmd.Flags().Int64("realm", _config.Realm, "Realm of the network")
	cmd.Flags().String("bootstrap-addressbook", _config.BootstrapAddressBook, "Serialized address book used before any is imported")

	// Quorum and cycles
	cmd.Flags().Int("quorum-numerator", _config.QuorumNumerator, "A hash is accepted when more than numerator/denominator of the nodes sign it")
	cmd.Flags().Int("quorum-denominator", _config.QuorumDenominator, "See quorum-numerator")
	cmd.Flags().Int("batch-size", _config.BatchSize, "Max number of items persisted at once")
	cmd.Flags().Duration("cycle-timeout", _config.CycleTimeout, "Max duration of a cycle")
	cmd.Flags().Duration("poll-interval", _config.PollInterval, "Time between cycles when there is nothing new")
	cmd.Flags().Duration("catch-up-interval", _config.CatchUpInterval, "Time between cycles that imported files")
	cmd.Flags().Int("max-files", _config.MaxFiles, "Max number of files per stream and cycle")
	cmd.Flags().Int("parallelism", _config.Parallelism, "Max number of concurrent object store calls")
	cmd.Flags().Int("cache-size", _config.CacheSize, "Number of parsed node keys kept in memory")
	cmd.Flags().Bool("verify-hash-chain", _config.VerifyHashChain, "Check the previous hash of record files")

	// Object store
	cmd.Flags().String("backend", _config.Backend, "Object store: local, s3, or gcs")
	cmd.Flags().String("bucket", _config.Bucket, "Bucket name")
	cmd.Flags().String("path", _config.Path, "Root directory of the local backend")
	cmd.Flags().String("region", _config.Region, "S3 region")
	cmd.Flags().String("endpoint", _config.Endpoint, "Custom S3 or GCS endpoint")
	cmd.Flags().Bool("requester-pays", _config.RequesterPays, "Bill requests to the reader")
	cmd.Flags().String("project", _config.Project, "GCS project billed for requester pays buckets")
	cmd.Flags().Uint64("retries", _config.Retries, "Retries of failed object store calls")
	cmd.Flags().Duration("retry-base", _config.RetryBase, "Initial backoff between retries")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")
	cmd.Flags().String("sink", _config.Sink, "Where imported items go: badger or log")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":           _config.DataDir,
		"LogLevel":          _config.LogLevel,
		"Streams":           _config.Streams,
		"Shard":             _config.Shard,
		"QuorumNumerator":   _config.QuorumNumerator,
		"QuorumDenominator": _config.QuorumDenominator,
		"BatchSize":         _config.BatchSize,
		"CycleTimeout":      _config.CycleTimeout,
		"PollInterval":      _config.PollInterval,
		"MaxFiles":          _config.MaxFiles,
		"Backend":           _config.Backend,
		"Bucket":            _config.Bucket,
		"ServiceAddr":       _config.ServiceAddr,
		"Store":             _config.Store,
		"Sink":              _config.Sink,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/streamgate.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigFile)
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
