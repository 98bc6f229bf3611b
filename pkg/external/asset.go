// Package external adapts huntbay's database-internal Asset/Credential
// records, and whatever lives entirely outside the database (SSH secrets,
// sudo secrets, analyst identities), to the narrow interfaces the rest of
// the system depends on (spec §1 "External collaborators": asset
// inventory, a secrets manager, and an identity provider are modeled as
// collaborators huntbay talks to, not subsystems it owns).
//
// The asset store is always the local one backed by the Postgres
// Asset/Credential tables (huntbay is its own inventory); there is no gRPC
// asset store. Secrets and identity each have a local backend and a gRPC
// one that delegates to an external process, selected by
// config.ExternalConfig.
package external

import (
	"context"
	"fmt"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/asset"
	"github.com/sablecore/huntbay/pkg/huntmodule"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// sudoSecretRef derives the secrets-store handle for an asset's
// custom_password sudo credential. The Credential schema only carries a
// ref for the SSH auth secret (secret_ref) and an optional private-key
// passphrase (passphrase_ref); it has no dedicated column for a distinct
// sudo secret, so the sudo secret is addressed by a fixed naming convention
// against the same store instead of a new schema field.
func sudoSecretRef(assetID string) string {
	return "sudo/" + assetID
}

// EntAssetStore resolves hunt.AssetInfo from the local Asset/Credential
// tables. It satisfies hunt.AssetLookup.
type EntAssetStore struct {
	client  *ent.Client
	secrets SecretsStore
}

// NewEntAssetStore constructs an EntAssetStore. secrets is consulted only
// for the reuse_ssh_password and custom_password sudo policies.
func NewEntAssetStore(client *ent.Client, secrets SecretsStore) *EntAssetStore {
	return &EntAssetStore{client: client, secrets: secrets}
}

// GetAssetInfo loads an Asset row (with its Credential edge) and resolves
// its sudo policy into an sshconn.SudoPolicy the Session owner can pass
// straight to Connector.Exec. The sudo secret, when one is needed, is
// resolved on every call and is not cached across a Session's lifetime.
func (s *EntAssetStore) GetAssetInfo(ctx context.Context, assetID string) (hunt.AssetInfo, error) {
	a, err := s.client.Asset.Query().
		Where(asset.ID(assetID)).
		WithCredential().
		Only(ctx)
	if err != nil {
		return hunt.AssetInfo{}, fmt.Errorf("external: load asset %s: %w", assetID, err)
	}

	info := hunt.AssetInfo{
		ID: a.ID,
		OS: huntmodule.OSType(a.OsType),
	}

	if a.SudoPolicy == nil {
		return info, nil
	}
	info.HasSudo = true

	policy := sshconn.SudoPolicy{Enabled: true}
	switch *a.SudoPolicy {
	case asset.SudoPolicyNopasswd:
		// Password stays empty: passwordless sudo.
	case asset.SudoPolicyReuseSshPassword:
		cred, err := s.client.Asset.QueryCredential(a).Only(ctx)
		if err != nil {
			return hunt.AssetInfo{}, fmt.Errorf("external: load credential for asset %s: %w", assetID, err)
		}
		pw, err := s.secrets.Resolve(ctx, cred.SecretRef)
		if err != nil {
			return hunt.AssetInfo{}, fmt.Errorf("external: resolve ssh secret for asset %s: %w", assetID, err)
		}
		policy.Password = pw
	case asset.SudoPolicyCustomPassword:
		pw, err := s.secrets.Resolve(ctx, sudoSecretRef(assetID))
		if err != nil {
			return hunt.AssetInfo{}, fmt.Errorf("external: resolve sudo secret for asset %s: %w", assetID, err)
		}
		policy.Password = pw
	default:
		return hunt.AssetInfo{}, fmt.Errorf("external: asset %s: unrecognized sudo policy %q", assetID, *a.SudoPolicy)
	}
	info.SudoPolicy = policy

	return info, nil
}
