package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Default filenames.
const (
	// DefaultConfigFile is the base name of the configuration file in the
	// datadir. Any extension viper supports may be used.
	DefaultConfigFile = "streamgate"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultKeyfile is the default name of the file containing a node's
	// private key, used by the sign command.
	DefaultKeyfile = "priv_key"
)

// Sink names.
const (
	SinkBadger = "badger"
	SinkLog    = "log"
)

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultServiceAddr       = "127.0.0.1:8000"
	DefaultStore             = true
	DefaultSink              = SinkBadger
	DefaultShard             = 0
	DefaultRealm             = 0
	DefaultQuorumNumerator   = 2
	DefaultQuorumDenominator = 3
	DefaultBatchSize         = 1000
	DefaultCycleTimeout      = 5 * time.Minute
	DefaultPollInterval      = 5 * time.Second
	DefaultCatchUpInterval   = 10 * time.Millisecond
	DefaultMaxFiles          = 100
	DefaultParallelism       = 16
	DefaultCacheSize         = 256
	DefaultVerifyHashChain   = true
	DefaultBackend           = objectstore.BackendLocal
	DefaultRetries           = 3
	DefaultRetryBase         = 200 * time.Millisecond
)

// DefaultStreams are the streams imported when none are configured.
var DefaultStreams = []string{
	streamfile.RecordStream.Name,
	streamfile.BalanceStream.Name,
}

// Config contains all the configuration properties of a streamgate importer.
type Config struct {
	// DataDir is the top-level directory containing configuration and data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log entry.
	LogFile string `mapstructure:"log-file"`

	// Store activates persistent storage. Without it the checkpoints, the
	// address books and the imported content only live in memory.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// Sink selects where imported items go: badger or log.
	Sink string `mapstructure:"sink"`

	// Shard and Realm of the network. Balance rows of another shard are
	// rejected and roster file ids are resolved in this shard and realm.
	Shard int64 `mapstructure:"shard"`
	Realm int64 `mapstructure:"realm"`

	// Streams lists the stream types to import, by name.
	Streams []string `mapstructure:"streams"`

	// A file is accepted when the number of nodes vouching for its hash,
	// multiplied by QuorumDenominator, is greater than the number of nodes in
	// the address book multiplied by QuorumNumerator.
	QuorumNumerator   int `mapstructure:"quorum-numerator"`
	QuorumDenominator int `mapstructure:"quorum-denominator"`

	// BatchSize is the max number of items handed to the sink at once.
	BatchSize int `mapstructure:"batch-size"`

	// CycleTimeout bounds the duration of one cycle of one stream.
	CycleTimeout time.Duration `mapstructure:"cycle-timeout"`

	// PollInterval is the pause between cycles when there is nothing new.
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// CatchUpInterval is the pause between cycles that imported files.
	CatchUpInterval time.Duration `mapstructure:"catch-up-interval"`

	// MaxFiles is the max number of files per stream resolved in one cycle.
	MaxFiles int `mapstructure:"max-files"`

	// Parallelism bounds concurrent object store calls.
	Parallelism int `mapstructure:"parallelism"`

	// CacheSize is the number of parsed node keys kept in memory.
	CacheSize int `mapstructure:"cache-size"`

	// VerifyHashChain enables the previous hash checks of chain linked
	// streams.
	VerifyHashChain bool `mapstructure:"verify-hash-chain"`

	// BootstrapAddressBook is the path of a serialized address book used
	// when none has been persisted yet.
	BootstrapAddressBook string `mapstructure:"bootstrap-addressbook"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP status service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Object store holding the files uploaded by the nodes.
	Backend       string        `mapstructure:"backend"`
	Bucket        string        `mapstructure:"bucket"`
	Path          string        `mapstructure:"path"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	RequesterPays bool          `mapstructure:"requester-pays"`
	Project       string        `mapstructure:"project"`
	Retries       uint64        `mapstructure:"retries"`
	RetryBase     time.Duration `mapstructure:"retry-base"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          DefaultLogLevel,
		Store:             DefaultStore,
		DatabaseDir:       DefaultDatabaseDir(),
		Sink:              DefaultSink,
		Shard:             DefaultShard,
		Realm:             DefaultRealm,
		Streams:           append([]string(nil), DefaultStreams...),
		QuorumNumerator:   DefaultQuorumNumerator,
		QuorumDenominator: DefaultQuorumDenominator,
		BatchSize:         DefaultBatchSize,
		CycleTimeout:      DefaultCycleTimeout,
		PollInterval:      DefaultPollInterval,
		CatchUpInterval:   DefaultCatchUpInterval,
		MaxFiles:          DefaultMaxFiles,
		Parallelism:       DefaultParallelism,
		CacheSize:         DefaultCacheSize,
		VerifyHashChain:   DefaultVerifyHashChain,
		ServiceAddr:       DefaultServiceAddr,
		Backend:           DefaultBackend,
		Retries:           DefaultRetries,
		RetryBase:         DefaultRetryBase,
	}

	return config
}

// NewTestConfig returns a config object with default values, no persistent
// storage, and a special logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.Store = false
	config.Backend = objectstore.BackendInmem
	config.Retries = 0
	config.PollInterval = 10 * time.Millisecond
	config.CatchUpInterval = time.Millisecond
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// StreamTypes resolves the configured stream names. Unknown names are
// returned in the second value.
func (c *Config) StreamTypes() ([]streamfile.StreamType, []string) {
	var (
		res     []streamfile.StreamType
		unknown []string
	)
	for _, name := range c.Streams {
		st, ok := streamfile.StreamTypeByName(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		res = append(res, st)
	}
	return res, unknown
}

// ObjectStore returns the settings of the object store.
func (c *Config) ObjectStore() objectstore.Config {
	return objectstore.Config{
		Backend:       c.Backend,
		Bucket:        c.Bucket,
		Path:          c.Path,
		Region:        c.Region,
		Endpoint:      c.Endpoint,
		RequesterPays: c.RequesterPays,
		Project:       c.Project,
		Retries:       c.Retries,
		RetryBase:     c.RetryBase,
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "streamgate".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(c.LogFile, &logrus.JSONFormatter{}))
		}
	}
	return c.logger.WithField("prefix", "streamgate")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config based
// on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Streamgate")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Streamgate")
		} else {
			return filepath.Join(home, ".streamgate")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
