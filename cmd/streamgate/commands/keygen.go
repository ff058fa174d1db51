package commands

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/streamgate/src/crypto/keys"
)

var (
	privKeyFile string
	pubKeyFile  string
	keyType     string
)

// NewKeygenCmd produces a KeygenCmd which create a key pair
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create a node key pair",
		RunE:  keygen,
	}

	AddKeygenFlags(cmd)

	return cmd
}

//AddKeygenFlags adds flags to the keygen command
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&privKeyFile, "priv", _config.Keyfile(), "File where the private key will be written")
	cmd.Flags().StringVar(&pubKeyFile, "pub", path.Join(_config.DataDir, "key.pub"), "File where the public key will be written")
	cmd.Flags().StringVar(&keyType, "type", "ecdsa", "ecdsa, rsa, or secp256k1")
}

func keygen(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(privKeyFile); err == nil {
		return fmt.Errorf("A key already lives under: %s", path.Dir(privKeyFile))
	}

	var (
		key *keys.PrivateKey
		err error
	)
	switch keyType {
	case "ecdsa":
		key, err = keys.GenerateKey(keys.ECDSAP256)
	case "secp256k1":
		key, err = keys.GenerateKey(keys.Secp256k1)
	case "rsa":
		key, err = keys.GenerateRSAKey(3072)
	default:
		return fmt.Errorf("unknown key type %q", keyType)
	}
	if err != nil {
		return errors.Wrap(err, "generating key")
	}

	if err := os.MkdirAll(path.Dir(privKeyFile), 0700); err != nil {
		return errors.Wrap(err, "writing private key")
	}

	if err := keys.NewPemKeyfile(privKeyFile).WriteKey(key); err != nil {
		return errors.Wrap(err, "writing private key")
	}

	fmt.Printf("Your private key has been saved to: %s\n", privKeyFile)

	if err := os.MkdirAll(path.Dir(pubKeyFile), 0700); err != nil {
		return errors.Wrap(err, "writing public key")
	}

	if err := ioutil.WriteFile(pubKeyFile, []byte(key.PublicKeyHex()), 0600); err != nil {
		return errors.Wrap(err, "writing public key")
	}

	fmt.Printf("Your public key has been saved to: %s\n", pubKeyFile)

	return nil
}
