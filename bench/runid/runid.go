// Package runid derives deterministic, content-addressed identifiers for
// parameterized benchmark runs.
//
// A run is identified by its benchmark name, the first 8 characters of the
// repository commit, and a SHA-256 digest of the canonical serialization of
// its parameters. The digest is truncated to 8 (run id) or 4 (run slug) hex
// characters; collisions are acceptable for bookkeeping.
package runid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Identity is the value object naming one parameterized run.
// Two identities computed from equal inputs compare equal with ==.
type Identity struct {
	Benchmark   string
	RepoSHA8    string
	ParamsHash8 string
	ParamsHash4 string
}

// Compute derives the Identity of a run. repoSHA is used verbatim (it is
// already hex); params may be any value Canonical accepts.
func Compute(benchmark, repoSHA string, params any) (Identity, error) {
	canon, err := Canonical(params)
	if err != nil {
		return Identity{}, err
	}
	sum := sha256.Sum256(canon)
	digest := hex.EncodeToString(sum[:])

	sha8 := repoSHA
	if len(sha8) > 8 {
		sha8 = sha8[:8]
	}
	return Identity{
		Benchmark:   benchmark,
		RepoSHA8:    sha8,
		ParamsHash8: digest[:8],
		ParamsHash4: digest[:4],
	}, nil
}

// RunID returns "{benchmark}-{repo_sha8}-{params_hash8}".
func (id Identity) RunID() string {
	return fmt.Sprintf("%s-%s-%s", id.Benchmark, id.RepoSHA8, id.ParamsHash8)
}

// RunSlug returns "{benchmark}-{summary}-{params_hash4}". The summary must
// already be filesystem-safe; see SafeSummary.
func (id Identity) RunSlug(summary string) string {
	return fmt.Sprintf("%s-%s-%s", id.Benchmark, summary, id.ParamsHash4)
}
