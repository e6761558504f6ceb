package marketplace

import (
	"fmt"
	"strings"
)

// MarketplaceType names a gallery-compatible registry.
type MarketplaceType string

const (
	MarketplaceTypeMicrosoft MarketplaceType = "microsoft"
	MarketplaceTypeOpenVSX   MarketplaceType = "open-vsx"
)

// Provider holds the addresses of one registry. Open VSX serves the same
// extensionquery and vspackage surface under /vscode/gallery, so every
// provider is driven by the same client.
type Provider struct {
	Type        MarketplaceType
	Name        string
	Endpoint    string
	PackageBase string
	ItemsURL    string
}

var providers = map[MarketplaceType]Provider{
	MarketplaceTypeMicrosoft: {
		Type:        MarketplaceTypeMicrosoft,
		Name:        "Visual Studio Marketplace",
		Endpoint:    "https://marketplace.visualstudio.com/_apis/public/gallery/extensionquery",
		PackageBase: "https://marketplace.visualstudio.com/_apis/public/gallery",
		ItemsURL:    "https://marketplace.visualstudio.com/items",
	},
	MarketplaceTypeOpenVSX: {
		Type:        MarketplaceTypeOpenVSX,
		Name:        "Open VSX Registry",
		Endpoint:    "https://open-vsx.org/vscode/gallery/extensionquery",
		PackageBase: "https://open-vsx.org/vscode/gallery",
		ItemsURL:    "https://open-vsx.org/vscode/item",
	},
}

// Factory creates marketplace providers based on type
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateByType returns the provider for marketplaceType. An empty type is the
// Microsoft marketplace.
func (f *Factory) CreateByType(marketplaceType MarketplaceType) (Provider, error) {
	if marketplaceType == "" {
		marketplaceType = MarketplaceTypeMicrosoft
	}
	provider, ok := providers[MarketplaceType(strings.ToLower(string(marketplaceType)))]
	if !ok {
		return Provider{}, fmt.Errorf("unknown marketplace type: %s (expected %s or %s)",
			marketplaceType, MarketplaceTypeMicrosoft, MarketplaceTypeOpenVSX)
	}
	return provider, nil
}
