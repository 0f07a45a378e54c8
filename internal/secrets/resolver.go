// Package secrets resolves credential references used in configuration.
//
// A reference is one of:
//
//	env:NAME                  value of environment variable NAME
//	file:/path/to/secret      file contents, trailing newline removed
//	vault:<path>#<key>        field of a Vault secret (KV v1 or v2)
//
// Anything else is returned unchanged.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vaultapi "github.com/hashicorp/vault/api"
)

const (
	prefixEnv   = "env:"
	prefixFile  = "file:"
	prefixVault = "vault:"
)

// Resolver resolves references. The Vault client is created on first use.
type Resolver struct {
	vaultAddr string

	mu    sync.Mutex
	vault *vaultapi.Client
}

// NewResolver creates a resolver. vaultAddr overrides VAULT_ADDR when set;
// the token is always taken from VAULT_TOKEN.
func NewResolver(vaultAddr string) *Resolver {
	return &Resolver{vaultAddr: vaultAddr}
}

// IsReference reports whether raw uses one of the reference prefixes
func IsReference(raw string) bool {
	return strings.HasPrefix(raw, prefixEnv) ||
		strings.HasPrefix(raw, prefixFile) ||
		strings.HasPrefix(raw, prefixVault)
}

// Resolve returns the secret value for ref
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil

	case strings.HasPrefix(ref, prefixEnv):
		name := strings.TrimPrefix(ref, prefixEnv)
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return val, nil

	case strings.HasPrefix(ref, prefixFile):
		path := strings.TrimPrefix(ref, prefixFile)
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil

	case strings.HasPrefix(ref, prefixVault):
		return r.resolveVault(ctx, strings.TrimPrefix(ref, prefixVault))

	default:
		return ref, nil
	}
}

func (r *Resolver) resolveVault(ctx context.Context, spec string) (string, error) {
	path, key, ok := strings.Cut(spec, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("vault reference must look like vault:<path>#<key>, got %q", "vault:"+spec)
	}

	client, err := r.client()
	if err != nil {
		return "", err
	}

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s from Vault: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret returned from Vault (path: %s)", path)
	}

	data := secret.Data
	// KV v2 nests the fields one level down
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("vault secret %s has no field %q", path, key)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s field %q is not a string", path, key)
	}
	return val, nil
}

func (r *Resolver) client() (*vaultapi.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vault != nil {
		return r.vault, nil
	}

	cfg := vaultapi.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault config: %w", cfg.Error)
	}
	if r.vaultAddr != "" {
		cfg.Address = r.vaultAddr
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	r.vault = client
	return client, nil
}
