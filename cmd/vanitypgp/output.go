package main

import (
	"os"
	"path/filepath"

	"vanitypgp.dev/vanitypgp/pgp"
)

// writeKeyFiles stores the armored pair under dir, named by fingerprint.
// The public block is world readable; the secret block is owner only, and
// the directory is created 0700 so a fresh output directory never exposes
// secret material.
func writeKeyFiles(dir, fingerprint string, key *pgp.ArmoredKey) (pubPath, secPath string, err error) {
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return "", "", err
	}
	pubPath = filepath.Join(dir, fingerprint+".pub.asc")
	secPath = filepath.Join(dir, fingerprint+".sec.asc")
	if err = os.WriteFile(pubPath, []byte(key.Public), 0o644); err != nil {
		return "", "", err
	}
	if err = os.WriteFile(secPath, []byte(key.Private), 0o600); err != nil {
		return "", "", err
	}
	return pubPath, secPath, nil
}
