// Package present turns extension records into the facts a result card shows.
package present

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"vsxdl/internal/models"
)

const DefaultItemsURL = "https://marketplace.visualstudio.com/items"

type Star int

const (
	StarEmpty Star = iota
	StarHalf
	StarFull
)

func (s Star) String() string {
	switch s {
	case StarFull:
		return "★"
	case StarHalf:
		return "⯪"
	default:
		return "☆"
	}
}

// Card is everything a result row renders.
type Card struct {
	Title          string
	Publisher      string
	Description    string
	Installs       string
	Rating         float64
	Stars          [5]Star
	MarketplaceURL string
	IconURL        string
	LatestVersion  string
	Platforms      []string
}

func NewCard(ext models.Extension, itemsURL string) Card {
	rating := RoundedRating(ext.Statistics)
	installs, _ := ext.Statistic(models.StatisticInstall)

	card := Card{
		Title:          ext.DisplayName,
		Publisher:      ext.Publisher.DisplayName,
		Description:    ext.ShortDescription,
		Installs:       FormatInstallCount(installs),
		Rating:         rating,
		Stars:          Stars(rating),
		MarketplaceURL: MarketplaceURL(itemsURL, ext),
		IconURL:        IconURL(ext),
		Platforms:      ext.Platforms(),
	}
	if card.Title == "" {
		card.Title = ext.ExtensionName
	}
	if card.Publisher == "" {
		card.Publisher = ext.Publisher.PublisherName
	}
	if latest, ok := ext.Latest(); ok {
		card.LatestVersion = latest.Version
	}
	return card
}

// FormatInstallCount renders 1500000 as "1.5M", 2500 as "2.5K" and anything
// below a thousand as the plain number. 999999 stays on the K scale.
func FormatInstallCount(n float64) string {
	switch {
	case n >= 1_000_000:
		return oneDecimal(n/1_000_000) + "M"
	case n >= 1000:
		return oneDecimal(n/1000) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// oneDecimal rounds half away from zero before formatting.
func oneDecimal(x float64) string {
	return strconv.FormatFloat(math.Floor(x*10+0.5)/10, 'f', 1, 64)
}

// RoundedRating rounds the weighted rating up to the next half star. A missing
// statistic counts as zero.
func RoundedRating(stats []models.Statistic) float64 {
	var rating float64
	found := false
	for _, stat := range stats {
		if stat.StatisticName == models.StatisticWeightedRating {
			rating = stat.Value
			found = true
			break
		}
	}
	if !found {
		return 0
	}

	rounded := math.Ceil(rating*2) / 2
	return math.Max(0, math.Min(5, rounded))
}

func Stars(rating float64) [5]Star {
	var stars [5]Star
	for i := 1; i <= 5; i++ {
		switch {
		case rating >= float64(i):
			stars[i-1] = StarFull
		case rating >= float64(i)-0.5:
			stars[i-1] = StarHalf
		default:
			stars[i-1] = StarEmpty
		}
	}
	return stars
}

func StarString(stars [5]Star) string {
	s := ""
	for _, star := range stars {
		s += star.String()
	}
	return s
}

// MarketplaceURL links to the extension page. It never carries a version.
func MarketplaceURL(itemsURL string, ext models.Extension) string {
	if itemsURL == "" {
		itemsURL = DefaultItemsURL
	}
	return fmt.Sprintf("%s?itemName=%s", itemsURL, url.QueryEscape(ext.ID()))
}

// IconURL prefers the small icon of the latest version and falls back to the
// default one.
func IconURL(ext models.Extension) string {
	latest, ok := ext.Latest()
	if !ok {
		return ""
	}
	for _, assetType := range []string{models.AssetIconSmall, models.AssetIconDefault} {
		if src, ok := latest.Asset(assetType); ok {
			return src
		}
	}
	return ""
}
