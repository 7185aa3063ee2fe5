package signing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Config defines how to sign the repository.
type Config struct {
	SigningKey     string `yaml:"signingKey" env:"SIGNING_KEY"`
	SigningKeyPath string `yaml:"signingKeyPath" env:"SIGNING_KEY_PATH"`
}

// Enabled reports whether a key is configured.
func (c Config) Enabled() bool {
	return c.SigningKey != "" || c.SigningKeyPath != ""
}

// EntityFromConfig reads an Entity from the Config.
func EntityFromConfig(cfg Config) (*openpgp.Entity, error) {
	var entity *openpgp.Entity
	var err error
	if cfg.SigningKey != "" {
		slog.Debug("reading key from config")
		entity, err = EntityFromReader(strings.NewReader(cfg.SigningKey))
	} else if cfg.SigningKeyPath != "" {
		slog.Debug("reading key from file", slog.String("path", cfg.SigningKeyPath))
		var f io.ReadCloser
		f, err = os.Open(cfg.SigningKeyPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		entity, err = EntityFromReader(f)
	} else {
		return nil, fmt.Errorf("no signing key provided")
	}
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}
	return entity, nil
}

// EntityFromReader reads an Entity from an io.Reader.
func EntityFromReader(in io.Reader) (*openpgp.Entity, error) {
	keyRing, err := openpgp.ReadArmoredKeyRing(in)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	if len(keyRing) == 0 {
		return nil, fmt.Errorf("no keys found")
	}
	if keyRing[0].PrivateKey == nil {
		return nil, fmt.Errorf("key %X has no private key", keyRing[0].PrimaryKey.KeyId)
	}
	return keyRing[0], nil
}
