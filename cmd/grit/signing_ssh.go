package main

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/grit/pkg/repo"
	"golang.org/x/crypto/ssh"
)

// SSH signature armor and blob layout as produced by `ssh-keygen -Y sign`
// and consumed by git when gpg.format=ssh.
const (
	sshSigMagic      = "SSHSIG"
	sshSigVersion    = 1
	sshSigNamespace  = "git"
	sshSigHashAlg    = "sha512"
	sshSigArmorBegin = "-----BEGIN SSH SIGNATURE-----"
	sshSigArmorEnd   = "-----END SSH SIGNATURE-----"
	sshSigLineWidth  = 70
)

type sshSigSignedData struct {
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Hash          []byte
}

type sshSigBlob struct {
	Version       uint32
	PublicKey     []byte
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Signature     []byte
}

func newSSHCommitSigner(keyPath string) (repo.CommitSigner, string, error) {
	resolvedPath, err := resolveSigningKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}

	raw, err := os.ReadFile(resolvedPath)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key %q: %w", resolvedPath, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, "", fmt.Errorf("parse signing key %q: %w", resolvedPath, err)
	}

	commitSigner := func(payload []byte) (string, error) {
		return sshSign(signer, payload)
	}
	return commitSigner, resolvedPath, nil
}

// sshSign returns an armored SSHSIG signature over payload in the "git"
// namespace.
func sshSign(signer ssh.Signer, payload []byte) (string, error) {
	digest := sha512.Sum512(payload)
	signedData := append([]byte(sshSigMagic), ssh.Marshal(sshSigSignedData{
		Namespace:     sshSigNamespace,
		HashAlgorithm: sshSigHashAlg,
		Hash:          digest[:],
	})...)

	sig, err := signWithPreferredAlgorithm(signer, signedData)
	if err != nil {
		return "", fmt.Errorf("ssh sign: %w", err)
	}

	blob := append([]byte(sshSigMagic), ssh.Marshal(sshSigBlob{
		Version:       sshSigVersion,
		PublicKey:     signer.PublicKey().Marshal(),
		Namespace:     sshSigNamespace,
		HashAlgorithm: sshSigHashAlg,
		Signature:     ssh.Marshal(*sig),
	})...)
	return armorSSHSignature(blob), nil
}

// RSA keys must not sign with SHA-1 (ssh-rsa); git's verifier rejects it.
func signWithPreferredAlgorithm(signer ssh.Signer, data []byte) (*ssh.Signature, error) {
	if signer.PublicKey().Type() == ssh.KeyAlgoRSA {
		if as, ok := signer.(ssh.AlgorithmSigner); ok {
			return as.SignWithAlgorithm(rand.Reader, data, ssh.KeyAlgoRSASHA512)
		}
	}
	return signer.Sign(rand.Reader, data)
}

func armorSSHSignature(blob []byte) string {
	encoded := base64.StdEncoding.EncodeToString(blob)
	var b strings.Builder
	b.WriteString(sshSigArmorBegin)
	b.WriteByte('\n')
	for len(encoded) > 0 {
		n := min(sshSigLineWidth, len(encoded))
		b.WriteString(encoded[:n])
		b.WriteByte('\n')
		encoded = encoded[n:]
	}
	b.WriteString(sshSigArmorEnd)
	b.WriteByte('\n')
	return b.String()
}

func resolveSigningKeyPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		expanded, err := expandUserPath(path)
		if err != nil {
			return "", err
		}
		return expanded, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	candidates := []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
	for _, candidate := range candidates {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
