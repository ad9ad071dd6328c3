package vault

import (
	"fmt"
	"strings"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/config"

	"github.com/hashicorp/vault/api"
	"github.com/rs/zerolog"
)

const (
	usernameKey = "username"
	tokenKey    = "token"
)

type vaultPath struct {
	Mount string
	v2    bool
	Path  string
}

func (vp vaultPath) Read() string {
	if vp.v2 {
		return strings.Join([]string{vp.Mount, "data", vp.Path}, "/")
	}
	return strings.Join([]string{vp.Mount, vp.Path}, "/")
}

func (vp vaultPath) String() string {
	return vp.Mount + "/" + vp.Path
}

func toVaultPath(path string, v2 bool) vaultPath {
	vp := vaultPath{}
	path = strings.Trim(path, "/")
	part := strings.SplitN(path, "/", 2)
	vp.Mount = part[0]
	if len(part) > 1 {
		vp.Path = part[1]
	}
	vp.v2 = v2
	return vp
}

// Vault - reads GitHub credentials from a KV secret
type Vault struct {
	Config *config.Vault
	Log    zerolog.Logger
	client *api.Client
}

func (v *Vault) Start() error {
	var err error
	if v.client, err = api.NewClient(
		&api.Config{Address: v.Config.VaultURL}); err != nil {
		return fmt.Errorf("can't create vault client with: %v", err)
	}
	if v.Config.RoleID != "" {
		return v.login()
	}
	v.client.SetToken(v.Config.Token)
	return nil
}

func (v *Vault) login() error {
	secret, err := v.client.Logical().Write("auth/approle/login", map[string]interface{}{
		"role_id":   v.Config.RoleID,
		"secret_id": v.Config.SecretID,
	})
	if err != nil {
		return fmt.Errorf("can't login to vault with: %v", err)
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return fmt.Errorf("can't login to vault: no token in answer")
	}
	v.client.SetToken(secret.Auth.ClientToken)
	v.Log.Debug().Str("service", "vault").Msg("approle login")
	return nil
}

func (v *Vault) Stop() error {
	return nil
}

// Credentials - username and token keys of the secret, KV v1 and v2 are both supported
func (v *Vault) Credentials() (orgfox.Credentials, error) {
	secrets, err := v.readAny(v.Config.CredentialsPath)
	if err != nil {
		return orgfox.Credentials{}, err
	}
	creds := orgfox.Credentials{}
	if username, ok := secrets[usernameKey].(string); ok {
		creds.Username = username
	}
	if token, ok := secrets[tokenKey].(string); ok {
		creds.Token = token
	}
	if creds.Token == "" {
		return creds, fmt.Errorf("no %s key in %s", tokenKey, v.Config.CredentialsPath)
	}
	return creds, nil
}

func (v *Vault) readAny(path string) (map[string]interface{}, error) {
	vp := toVaultPath(path, false)
	out, err := v.read(vp)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	vp.v2 = true
	v.Log.Debug().Str("service", "vault").Str("path", vp.Read()).Msg("try kv v2")
	return v.read(vp)
}

func (v *Vault) read(vp vaultPath) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	secret, err := v.client.Logical().Read(vp.Read())
	if err != nil {
		return nil, fmt.Errorf("can't read secret with: %v", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("No data to read at path, %s", vp.Read())
	}
	for k, v := range secret.Data {
		switch t := v.(type) {
		case string:
			out[k] = t
		case map[string]interface{}:
			if k == "data" {
				for x, y := range t {
					if z, ok := y.(string); ok {
						out[x] = z
					}
				}
			}
		}
	}
	return out, nil
}
