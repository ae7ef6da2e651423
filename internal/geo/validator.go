// Package geo resolves Singapore postal codes to coordinates and a
// named area via the Google Geocoding API, restricted to country:SG.
// It is a pure query: provider failures degrade to "invalid", never to
// an error surfaced past this boundary.
package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var postalPattern = regexp.MustCompile(`^\d{6}$`)

type Location struct {
	Area             string  `json:"area"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Validator struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

func NewValidator(cfg Config, log *zap.Logger) *Validator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Validator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// ValidPostalSyntax reports whether the string has Singapore's 6-digit
// postal shape. Anything else must fail before any network call.
func ValidPostalSyntax(postalCode string) bool {
	return postalPattern.MatchString(postalCode)
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string             `json:"formatted_address"`
		AddressComponents []addressComponent `json:"address_components"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Validate resolves a postal code to a location inside Singapore. The
// second return is false whenever the code cannot be positively
// validated — bad syntax, no results, wrong country, missing area
// component, or an unreachable provider (fail closed).
func (v *Validator) Validate(ctx context.Context, postalCode string) (Location, bool) {
	if !ValidPostalSyntax(postalCode) {
		return Location{}, false
	}

	params := url.Values{}
	params.Set("address", postalCode)
	params.Set("components", "country:SG")
	params.Set("key", v.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Location{}, false
	}
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("geocode request failed", zap.String("postal", postalCode), zap.Error(err))
		return Location{}, false
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		v.log.Warn("geocode upstream error", zap.String("postal", postalCode), zap.Int("status", res.StatusCode))
		return Location{}, false
	}

	var payload geocodeResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		v.log.Warn("geocode decode failed", zap.Error(err))
		return Location{}, false
	}

	if payload.Status != "OK" || len(payload.Results) == 0 {
		return Location{}, false
	}

	result := payload.Results[0]

	country := ""
	for _, comp := range result.AddressComponents {
		if hasType(comp.Types, "country") {
			country = comp.ShortName
			break
		}
	}
	if country != "SG" {
		return Location{}, false
	}

	// Prefer the most specific locality-like component; accepting a
	// result without any area label would leave orders unroutable for
	// staff, so reject instead.
	area := pickComponent(result.AddressComponents, "neighborhood", "sublocality")
	if area == "" {
		area = pickComponent(result.AddressComponents, "locality")
	}
	if area == "" {
		area = pickComponent(result.AddressComponents, "administrative_area_level_2", "administrative_area_level_1")
	}
	if area == "" {
		return Location{}, false
	}

	return Location{
		Area:             area,
		Lat:              result.Geometry.Location.Lat,
		Lng:              result.Geometry.Location.Lng,
		FormattedAddress: result.FormattedAddress,
	}, true
}

func pickComponent(components []addressComponent, wanted ...string) string {
	for _, w := range wanted {
		for _, comp := range components {
			if hasType(comp.Types, w) && comp.LongName != "" {
				return comp.LongName
			}
		}
	}
	return ""
}

func hasType(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
