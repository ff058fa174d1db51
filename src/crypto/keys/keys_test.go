package keys

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	bcrypto "github.com/mosaicnetworks/streamgate/src/crypto"
)

func TestPemKeyfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "streamgate")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	for _, kt := range []KeyType{ECDSAP256, Secp256k1} {
		keyfile := NewPemKeyfile(path.Join(dir, kt.String(), "node.pem"))

		// Try a read, should get nothing
		key, err := keyfile.ReadKey()
		if err == nil {
			t.Fatalf("ReadKey should generate an error")
		}
		if key != nil {
			t.Fatalf("key is not nil")
		}

		key, _ = GenerateKey(kt)
		if err := keyfile.WriteKey(key); err != nil {
			t.Fatalf("err: %v", err)
		}

		nKey, err := keyfile.ReadKey()
		if err != nil {
			t.Fatalf("err: %v", err)
		}

		if nKey.PublicKeyHex() != key.PublicKeyHex() {
			t.Fatalf("%s: keys do not match", kt)
		}
	}
}

func TestFilePermissions(t *testing.T) {
	dir, err := ioutil.TempDir("", "streamgate")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	key, _ := GenerateKey(Secp256k1)
	data, err := EncodePemKey(key)
	if err != nil {
		t.Fatal(err)
	}

	badKeyPath := path.Join(dir, "key_bad")

	// random selection of permissions that should not be accepted.
	shouldErr := []os.FileMode{
		0777, 0766, 0744,
		0677, 0666, 0644,
	}

	for _, fm := range shouldErr {
		ioutil.WriteFile(badKeyPath, data, fm)
		os.Chmod(badKeyPath, fm)

		if _, err := NewPemKeyfile(badKeyPath).ReadKey(); err == nil {
			t.Fatalf("%o || keyfile should return permissions error", fm)
		}
	}

	goodKeyPath := path.Join(dir, "key_good")
	ioutil.WriteFile(goodKeyPath, data, 0600)

	if _, err := NewPemKeyfile(goodKeyPath).ReadKey(); err != nil {
		t.Fatalf("keyfile should not return error. Got %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	rsaKey, err := GenerateRSAKey(1024)
	if err != nil {
		t.Fatal(err)
	}
	p256Key, _ := GenerateKey(ECDSAP256)
	secpKey, _ := GenerateKey(Secp256k1)

	fileHash := bcrypto.SHA384([]byte("J'aime mieux forger mon ame que la meubler"))
	otherHash := bcrypto.SHA384([]byte("other"))

	for _, priv := range []*PrivateKey{rsaKey, p256Key, secpKey} {
		sig, err := priv.Sign(fileHash)
		if err != nil {
			t.Fatalf("%s: %v", priv.Type, err)
		}

		pub, err := ParsePublicKey(priv.PublicKeyHex())
		if err != nil {
			t.Fatalf("%s: %v", priv.Type, err)
		}
		if pub.Type != priv.Type {
			t.Fatalf("parsed key type should be %s, not %s", priv.Type, pub.Type)
		}

		if !pub.Verify(fileHash, sig) {
			t.Fatalf("%s: signature should verify", priv.Type)
		}
		if pub.Verify(otherHash, sig) {
			t.Fatalf("%s: signature should not verify another hash", priv.Type)
		}
		if pub.Verify(fileHash, nil) {
			t.Fatalf("%s: empty signature should not verify", priv.Type)
		}
	}
}

func TestParsePublicKeyErrors(t *testing.T) {
	if _, err := ParsePublicKey("zz"); err == nil {
		t.Fatal("non hex key should fail")
	}
	if _, err := ParsePublicKey(""); err == nil {
		t.Fatal("empty key should fail")
	}
	if _, err := ParsePublicKey("0102030405"); err == nil {
		t.Fatal("garbage key should fail")
	}
}
