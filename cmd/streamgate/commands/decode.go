package commands

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/streamgate/src/balance"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

var (
	printItems bool
	shard      int64
)

//NewDecodeCmd returns the command that decodes a local stream file
func NewDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a stream file and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  decode,
	}
	cmd.Flags().BoolVar(&printItems, "items", false, "Print every item")
	cmd.Flags().Int64Var(&shard, "shard", _config.Shard, "Shard of balance rows")
	return cmd
}

func decode(cmd *cobra.Command, args []string) error {
	rec, err := decodeLocal(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:            %s\n", rec.Name)
	fmt.Fprintf(out, "stream:          %s\n", rec.Stream.Name)
	fmt.Fprintf(out, "version:         %d\n", rec.Version)
	if rec.HapiVersion != "" {
		fmt.Fprintf(out, "hapi version:    %s\n", rec.HapiVersion)
	}
	fmt.Fprintf(out, "items:           %d\n", rec.Count)
	fmt.Fprintf(out, "consensus start: %d\n", rec.ConsensusStart)
	fmt.Fprintf(out, "consensus end:   %d\n", rec.ConsensusEnd)
	if rec.BlockNumber != 0 {
		fmt.Fprintf(out, "block number:    %d\n", rec.BlockNumber)
	}
	fmt.Fprintf(out, "previous hash:   %s\n", common.Hex(rec.PreviousHash))
	fmt.Fprintf(out, "hash:            %s\n", common.Hex(rec.Hash))
	fmt.Fprintf(out, "file hash:       %s\n", common.Hex(rec.FileHash))
	if len(rec.MetadataHash) > 0 {
		fmt.Fprintf(out, "metadata hash:   %s\n", common.Hex(rec.MetadataHash))
	}

	if !printItems {
		return nil
	}

	it := rec.Items()
	for it.Next() {
		if err := it.Err(); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		switch item := it.Item().(type) {
		case *record.RecordItem:
			fmt.Fprintf(out, "%d %d %s\n", item.Index(), item.ConsensusTimestamp(), item.Kind())
		case *balance.Item:
			fmt.Fprintf(out, "%d %s %d\n", item.Index(), item.Account, item.Balance)
		}
	}

	return nil
}

// decodeLocal decodes the stream file at path, choosing the decoder from the
// file name.
func decodeLocal(path string) (*streamfile.StreamFileRecord, error) {
	name := filepath.Base(path)
	fn, err := streamfile.ParseFilename(name)
	if err != nil {
		return nil, err
	}
	if fn.Signature {
		return nil, fmt.Errorf("%s is a signature file", name)
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading stream file")
	}

	switch fn.Stream.Name {
	case streamfile.BalanceStream.Name:
		return balance.NewDecoder(shard, _config.Logger()).Decode(name, data)
	default:
		return record.Decode(name, data)
	}
}
