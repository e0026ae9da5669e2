// Package smarthttp implements the client side of git's smart-HTTP
// transport (v0/v1): reference discovery over GET and the
// want/done pack negotiation over POST.
package smarthttp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/pktline"
)

// List of errors returned while talking to a smart-HTTP remote
var (
	// ErrInvalidDiscoveryURL is returned when the discovery endpoint
	// answers with anything but 200/304
	ErrInvalidDiscoveryURL = errors.New("invalid discovery url")
	// ErrWrongContentType is returned when a response's Content-Type
	// doesn't match what the protocol requires
	ErrWrongContentType = errors.New("wrong content type")
	// ErrInvalidSmartHTTPResponse is returned when a response's body
	// doesn't follow the expected pkt-line framing
	ErrInvalidSmartHTTPResponse = errors.New("invalid smart http response")
)

const (
	uploadPackService         = "git-upload-pack"
	advertisementContentType  = "application/x-git-upload-pack-advertisement"
	uploadPackRequestMIME     = "application/x-git-upload-pack-request"
	uploadPackResultMIME      = "application/x-git-upload-pack-result"
	expectedAdvertisementLine = "# service=" + uploadPackService
)

// Ref represents a single reference as advertised by the remote
type Ref struct {
	Hash plumbing.Hash
	Name string
}

// Advertisement represents the result of the reference discovery
// request
type Advertisement struct {
	RepositoryURL string
	HeadHash      plumbing.Hash
	Parameters    []string
	Refs          []Ref
}

// Discover performs the GET {url}/info/refs?service=git-upload-pack
// request and parses the ref advertisement
func Discover(client *http.Client, repoURL string) (*Advertisement, error) {
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := fmt.Sprintf("%s/info/refs?service=%s", repoURL, uploadPackService)
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not reach %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing we can do with a close error on a GET response

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrInvalidDiscoveryURL)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != advertisementContentType {
		return nil, fmt.Errorf("%s: %w", ct, ErrWrongContentType)
	}

	return parseAdvertisement(repoURL, resp.Body)
}

func parseAdvertisement(repoURL string, body io.Reader) (*Advertisement, error) {
	scanner := pktline.NewScanner(body)

	first, ok, err := scanner.Next()
	if err != nil {
		return nil, fmt.Errorf("could not read service announcement: %w", err)
	}
	if !ok || string(bytes.TrimSpace(first)) != expectedAdvertisementLine {
		return nil, fmt.Errorf("unexpected service announcement %q: %w", first, ErrInvalidSmartHTTPResponse)
	}

	// a flush packet follows the service announcement
	if _, ok, err = scanner.Next(); err != nil {
		return nil, fmt.Errorf("could not read flush packet: %w", err)
	} else if ok {
		return nil, fmt.Errorf("expected flush packet after service announcement: %w", ErrInvalidSmartHTTPResponse)
	}

	adv := &Advertisement{RepositoryURL: repoURL}

	line, ok, err := scanner.Next()
	if err != nil {
		return nil, fmt.Errorf("could not read first ref line: %w", err)
	}
	if !ok {
		return adv, nil
	}

	hash, rest, params, err := parseFirstRefLine(line)
	if err != nil {
		return nil, err
	}
	adv.HeadHash = hash
	adv.Parameters = params
	if rest != "" {
		adv.Refs = append(adv.Refs, Ref{Hash: hash, Name: rest})
	}

	for {
		line, ok, err := scanner.Next()
		if err != nil {
			return nil, fmt.Errorf("could not read ref line: %w", err)
		}
		if !ok {
			break
		}
		hash, name, err := parseRefLine(line)
		if err != nil {
			return nil, err
		}
		adv.Refs = append(adv.Refs, Ref{Hash: hash, Name: name})
	}

	return adv, nil
}

// parseFirstRefLine parses "<40-hex> <refname>\0<capability-list>"
func parseFirstRefLine(line []byte) (hash plumbing.Hash, refname string, params []string, err error) {
	withoutNul, capabilities, _ := bytes.Cut(line, []byte{0})
	hash, refname, err = parseRefLine(withoutNul)
	if err != nil {
		return plumbing.ZeroHash, "", nil, err
	}
	if len(capabilities) > 0 {
		params = strings.Split(string(capabilities), " ")
	}
	return hash, refname, params, nil
}

func parseRefLine(line []byte) (plumbing.Hash, string, error) {
	parts := strings.SplitN(string(line), " ", 2)
	if len(parts) != 2 {
		return plumbing.ZeroHash, "", fmt.Errorf("malformed ref line %q: %w", line, ErrInvalidSmartHTTPResponse)
	}
	hash, err := plumbing.HashFromString(parts[0])
	if err != nil {
		return plumbing.ZeroHash, "", fmt.Errorf("malformed ref hash %q: %w", parts[0], ErrInvalidSmartHTTPResponse)
	}
	return hash, parts[1], nil
}

// FetchPack performs the POST {url}/git-upload-pack request, asking
// for a single want and sending done immediately (no multi_ack
// negotiation), and returns the raw packfile bytes (the "PACK..."
// stream, with the leading NAK line already stripped).
func FetchPack(client *http.Client, repoURL string, want plumbing.Hash) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	body := new(bytes.Buffer)
	if err := pktline.WriteLine(body, []byte(fmt.Sprintf("want %s\n", want.String()))); err != nil {
		return nil, fmt.Errorf("could not write want line: %w", err)
	}
	if err := pktline.WriteFlush(body); err != nil {
		return nil, fmt.Errorf("could not write flush packet: %w", err)
	}
	if err := pktline.WriteLine(body, []byte("done\n")); err != nil {
		return nil, fmt.Errorf("could not write done line: %w", err)
	}

	endpoint := fmt.Sprintf("%s/git-upload-pack", repoURL)
	resp, err := client.Post(endpoint, uploadPackRequestMIME, body)
	if err != nil {
		return nil, fmt.Errorf("could not reach %s: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing we can do with a close error on a POST response

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrInvalidSmartHTTPResponse)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && ct != uploadPackResultMIME {
		return nil, fmt.Errorf("%s: %w", ct, ErrWrongContentType)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read pack response: %w", err)
	}

	const nakPrefix = "0008NAK\n"
	if len(raw) < len(nakPrefix) || string(raw[:len(nakPrefix)]) != nakPrefix {
		return nil, fmt.Errorf("missing NAK line: %w", ErrInvalidSmartHTTPResponse)
	}
	return raw[len(nakPrefix):], nil
}
