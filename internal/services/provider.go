package services

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/rooty/internal/container"
	"go.uber.org/zap"
)

// HubKey is the container key of the hub. "wp" aliases it.
const (
	HubKey   = "services.hub"
	HubAlias = "wp"
)

// Provider registers the hub and every mapped service in a container.
type Provider struct {
	services *Map
	catalog  *Catalog
	logger   *zap.Logger
	debug    bool
}

// NewProvider creates a provider. Nil arguments select the defaults.
func NewProvider(services *Map, catalog *Catalog, logger *zap.Logger, debug bool) *Provider {
	if services == nil {
		services = DefaultMap()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{services: services, catalog: catalog, logger: logger, debug: debug}
}

// Register validates the map against the catalog, then binds each service
// as a singleton under its class with a "wp.{name}" alias, and the hub
// under "services.hub" with a "wp" alias. Nothing is bound when validation
// fails.
func (p *Provider) Register(c *container.Container) error {
	for _, e := range p.services.Entries() {
		if !p.catalog.Has(e.Class) {
			return fmt.Errorf("%w: WordPress service [%s] points to missing class [%s]",
				ErrInvalidService, e.Name, e.Class)
		}
	}

	c.Singleton(HubKey, func(container.Maker) (any, error) {
		return NewHub(c, p.services, p.catalog, WithLogger(p.logger), WithDebug(p.debug)), nil
	})
	if err := c.Alias(HubKey, HubAlias); err != nil {
		return err
	}

	for _, e := range p.services.Entries() {
		ctor, _ := p.catalog.Constructor(e.Class)
		c.Singleton(string(e.Class), func(r container.Maker) (any, error) {
			return ctor(r)
		})
		if err := c.Alias(string(e.Class), Key(e.Name)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidService, err)
		}
		p.logger.Debug("service registered", zap.String("service", e.Name), zap.String("class", string(e.Class)))
	}
	return nil
}

// Boot resolves the hub and boots every service.
func (p *Provider) Boot(ctx context.Context, c *container.Container) error {
	hub, err := container.Resolve[*Hub](c, HubAlias)
	if err != nil {
		return err
	}
	return hub.Boot(ctx)
}
