// Package signing produces the OpenPGP signatures APT clients use to verify
// a Release file.
package signing

import (
	"bytes"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

type Signer struct {
	entity *openpgp.Entity
}

func NewSigner(entity *openpgp.Entity) *Signer {
	return &Signer{entity: entity}
}

// SignerFromConfig returns nil when no key is configured.
func SignerFromConfig(cfg Config) (*Signer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	entity, err := EntityFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewSigner(entity), nil
}

// Clearsign wraps data in a cleartext signature, the InRelease format.
func (s *Signer) Clearsign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := clearsign.Encode(&buf, s.entity.PrivateKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating clearsign encoder: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	if _, err = fmt.Fprintln(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetachSign returns an armored detached signature, the Release.gpg format.
func (s *Signer) DetachSign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return buf.Bytes(), nil
}
