package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Chain resolves the layout chain for the named layout, innermost first.
//
// The first element is the named layout itself; each subsequent element is
// the parent of the one before it. Parent references are followed with a
// visited set, so a cycle is reported as ErrCycle with the traversal path
// rather than looping forever.
func (r *Registry) Chain(name string) ([]*Layout, error) {
	var chain []*Layout
	visited := make(map[string]bool)

	current := name
	for current != "" {
		if visited[current] {
			path := make([]string, 0, len(chain)+1)
			for _, l := range chain {
				path = append(path, l.Name)
			}
			path = append(path, current)
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
		}
		visited[current] = true

		l, err := r.Get(current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, l)
		current = l.Parent
	}

	return chain, nil
}

// ChainFingerprint computes a fingerprint covering every layout in the chain,
// in chain order. A change to any layout in the chain, including a reparent,
// changes the fingerprint, which marks dependent documents stale.
//
// An empty name yields a stable fingerprint for the no-layout case.
func (r *Registry) ChainFingerprint(name string) (string, error) {
	if name == "" {
		h := sha256.Sum256([]byte("no-layout"))
		return hex.EncodeToString(h[:]), nil
	}

	chain, err := r.Chain(name)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, l := range chain {
		h.Write([]byte(l.Name))
		h.Write([]byte("|"))
		h.Write([]byte(l.Fingerprint))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Validate resolves every loaded layout's chain, surfacing unknown parents
// and cycles before any document renders against them.
func (r *Registry) Validate() error {
	for _, name := range r.Names() {
		if _, err := r.Chain(name); err != nil {
			return err
		}
	}
	return nil
}
