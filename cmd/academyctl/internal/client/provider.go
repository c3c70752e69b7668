// Package client yields API clients backed by the on-disk credential
// store, shared by all academyctl commands.
package client

import (
	"fmt"
	"sync"

	apiclient "github.com/wallacemaster800-spec/acameria-academy/pkg/client"
)

// Provider lazily constructs the SDK client and session backend bound
// to one server URL.
type Provider struct {
	serverURL string

	once    sync.Once
	api     *apiclient.Client
	backend *apiclient.Backend
	err     error
}

// NewProvider constructs a Provider bound to the given server URL.
func NewProvider(serverURL string) *Provider {
	return &Provider{serverURL: serverURL}
}

func (p *Provider) init() {
	p.once.Do(func() {
		store, err := apiclient.NewFileStore()
		if err != nil {
			p.err = fmt.Errorf("failed to create credential store: %w", err)
			return
		}
		p.api = apiclient.NewClient(p.serverURL)
		// NewBackend installs the stored token on the API client when a
		// previous login is on disk.
		p.backend = apiclient.NewBackend(p.api, store)
	})
}

// API returns the SDK client, with the stored bearer token installed
// when one exists.
func (p *Provider) API() (*apiclient.Client, error) {
	p.init()
	return p.api, p.err
}

// Backend returns the session backend over the credential store.
func (p *Provider) Backend() (*apiclient.Backend, error) {
	p.init()
	return p.backend, p.err
}
