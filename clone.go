package git

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/kaliumlabs/gitcore/plumbing/packfile"
	"github.com/kaliumlabs/gitcore/plumbing/smarthttp"
)

// CloneOptions contains the optional data used to clone a repository
type CloneOptions struct {
	// HTTPClient is used for the discovery (GET) and pack (POST)
	// requests against the remote. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Clone reproduces a remote repository served over the smart-HTTP
// transport into dir: it initializes a new repository, discovers the
// remote's refs, fetches a pack built around its HEAD, materializes
// every object the pack carries (resolving REF_DELTA entries against
// objects seen earlier in the same pack), and restores the working
// tree pointed at by HEAD's commit.
//
// A remote with no refs yet (an empty repository) is cloned as an
// empty repository: there's nothing to fetch or restore.
func Clone(url, dir string, opts CloneOptions) (repo *Repository, err error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	r, err := InitRepository(dir)
	if err != nil {
		return nil, fmt.Errorf("could not init %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			r.Close() //nolint:errcheck // we're already returning an error
		}
	}()

	adv, err := smarthttp.Discover(client, url)
	if err != nil {
		return nil, fmt.Errorf("could not discover refs of %s: %w", url, err)
	}

	if err = writeAdvertisedRefs(r, adv); err != nil {
		return nil, fmt.Errorf("could not persist remote refs: %w", err)
	}

	if adv.HeadHash.IsZero() {
		return r, nil
	}

	packBytes, err := smarthttp.FetchPack(client, url, adv.HeadHash)
	if err != nil {
		return nil, fmt.Errorf("could not fetch pack from %s: %w", url, err)
	}

	if err = ingestPack(r, packBytes); err != nil {
		return nil, fmt.Errorf("could not ingest pack from %s: %w", url, err)
	}

	if err = restoreFromCommit(r, adv.HeadHash); err != nil {
		return nil, fmt.Errorf("could not restore working tree: %w", err)
	}

	return r, nil
}

// writeAdvertisedRefs writes HEAD (detached, pointing directly at the
// remote's head commit) and every advertised ref under refs/
func writeAdvertisedRefs(r *Repository, adv *smarthttp.Advertisement) error {
	if adv.HeadHash.IsZero() {
		return nil
	}
	if err := r.WriteReference(plumbing.NewReference(plumbing.Head, adv.HeadHash)); err != nil {
		return fmt.Errorf("could not write HEAD: %w", err)
	}
	for _, ref := range adv.Refs {
		if err := r.WriteReference(plumbing.NewReference(ref.Name, ref.Hash)); err != nil {
			return fmt.Errorf("could not write %s: %w", ref.Name, err)
		}
	}
	return nil
}

// ingestPack parses the raw pack bytes fetched from the remote and
// persists every object it carries, resolving REF_DELTA entries as it
// goes. Deltas are expected to appear after their base, whether the
// base comes from earlier in this same pack or already exists in the
// local odb; anything else fails with ErrCantBuildFromRefDelta rather
// than attempting a second pass.
func ingestPack(r *Repository, raw []byte) error {
	_, records, err := packfile.ReadStream(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("could not parse packfile: %w", err)
	}

	seen := make(map[plumbing.Hash]*object.Object, len(records))

	for i, rec := range records {
		var o *object.Object
		if rec.IsDelta() {
			base, ok := seen[rec.BaseHash]
			if !ok {
				base, err = r.Object(rec.BaseHash)
				if err != nil {
					return fmt.Errorf("object %d, base %s: %w", i, rec.BaseHash.String(), packfile.ErrCantBuildFromRefDelta)
				}
			}
			o, err = packfile.ResolveRefDelta(base, rec.Payload)
			if err != nil {
				return fmt.Errorf("could not resolve delta object %d: %w", i, err)
			}
		} else {
			o = object.New(rec.Type, rec.Content)
		}

		seen[o.ID()] = o
		if _, err := r.WriteObject(o); err != nil {
			return fmt.Errorf("could not write object %s: %w", o.ID().String(), err)
		}
	}

	return nil
}

// restoreFromCommit loads the commit at headHash, walks its tree, and
// writes the resulting working tree under the repository's work tree
func restoreFromCommit(r *Repository, headHash plumbing.Hash) error {
	commit, err := r.GetCommit(headHash)
	if err != nil {
		return fmt.Errorf("could not load commit %s: %w", headHash.String(), err)
	}

	treeObj, err := r.Object(commit.TreeID())
	if err != nil {
		return fmt.Errorf("could not load tree %s: %w", commit.TreeID().String(), err)
	}
	tree, err := treeObj.AsTree()
	if err != nil {
		return fmt.Errorf("could not parse tree %s: %w", commit.TreeID().String(), err)
	}

	return r.RestoreWorkingTree(tree, r.Config.WorkTreePath)
}
