package commands

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/streamgate/src/crypto/keys"
	"github.com/mosaicnetworks/streamgate/src/signature"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

var signKeyFile string

//NewSignCmd returns the command that writes the signature file a node would
//publish next to a stream file
func NewSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Sign a stream file with a node key",
		Args:  cobra.ExactArgs(1),
		RunE:  sign,
	}
	cmd.Flags().StringVar(&signKeyFile, "key", _config.Keyfile(), "PEM file of the node private key")
	cmd.Flags().Int64Var(&shard, "shard", _config.Shard, "Shard of balance rows")
	return cmd
}

func sign(cmd *cobra.Command, args []string) error {
	rec, err := decodeLocal(args[0])
	if err != nil {
		return err
	}

	key, err := keys.NewPemKeyfile(signKeyFile).ReadKey()
	if err != nil {
		return errors.Wrap(err, "reading key")
	}

	sig, err := signature.Sign(key, signature.VersionFor(rec.Version), rec.FileHash, rec.MetadataHash)
	if err != nil {
		return errors.Wrap(err, "signing")
	}

	fn, err := streamfile.ParseFilename(filepath.Base(args[0]))
	if err != nil {
		return err
	}
	out := filepath.Join(filepath.Dir(args[0]), fn.SignatureName())

	if err := ioutil.WriteFile(out, sig, 0644); err != nil {
		return errors.Wrap(err, "writing signature")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signature written to %s\n", out)

	return nil
}
