package crypto

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	eth_crypto "github.com/ethereum/go-ethereum/crypto"
)

// Key is a secp256k1 identity key. Identities everywhere in the engine are
// the derived addresses; how authorization is granted to an address is the
// surrounding system's concern.
type Key struct {
	priv *ecdsa.PrivateKey
}

func Generate() (*Key, error) {
	priv, err := eth_crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

func LoadKeyFile(path string) (*Key, error) {
	priv, err := eth_crypto.LoadECDSA(path)
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

func (k *Key) SaveKeyFile(path string) error {
	return eth_crypto.SaveECDSA(path, k.priv)
}

func (k *Key) Address() common.Address {
	return eth_crypto.PubkeyToAddress(k.priv.PublicKey)
}

// Sign signs the keccak digest of data.
func (k *Key) Sign(data []byte) ([]byte, error) {
	digest := eth_crypto.Keccak256(data)
	return eth_crypto.Sign(digest, k.priv)
}

// Recover returns the address whose key produced sig over data.
func Recover(data []byte, sig []byte) (common.Address, error) {
	digest := eth_crypto.Keccak256(data)
	pub, err := eth_crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return eth_crypto.PubkeyToAddress(*pub), nil
}
