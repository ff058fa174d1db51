package commands

import (
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/streamgate/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for streamgate
var RootCmd = &cobra.Command{
	Use:              "streamgate",
	Short:            "Quorum verified ingestion of node stream files",
	TraverseChildren: true,
}
