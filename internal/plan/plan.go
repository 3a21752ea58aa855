package plan

import "errors"

// ID identifies a subscription plan.
type ID string

const (
	Free     ID = "free"
	Creator  ID = "creator"
	Business ID = "business"
	Agency   ID = "agency"
)

var ErrUnknownPlan = errors.New("unknown_plan")

// Credits is the monthly credit allowance granted by a plan.
type Credits struct {
	Video int `mapstructure:"video" json:"video"`
	Image int `mapstructure:"image" json:"image"`
}

// Limits are the concurrent resource ceilings enforced by a plan.
type Limits struct {
	BrandKits          int `mapstructure:"brandKits" json:"brand_kits"`
	TransformsPerVideo int `mapstructure:"transformsPerVideo" json:"transforms_per_video"`
	Users              int `mapstructure:"users" json:"users"`
}

// UploadProfile describes the encoding parameters applied to uploads
// on a plan.
type UploadProfile struct {
	Quality   string `mapstructure:"quality" json:"quality"`
	MaxHeight int    `mapstructure:"maxHeight" json:"max_height"`
	CropMode  string `mapstructure:"cropMode" json:"crop_mode"`
}

// Plan is a purchasable tier with its allowances and limits.
type Plan struct {
	ID         ID            `mapstructure:"id" json:"id"`
	Name       string        `mapstructure:"name" json:"name"`
	PriceCents int64         `mapstructure:"priceCents" json:"price_cents"`
	Credits    Credits       `mapstructure:"credits" json:"credits"`
	StorageGB  int           `mapstructure:"storageGb" json:"storage_gb"`
	Limits     Limits        `mapstructure:"limits" json:"limits"`
	Upload     UploadProfile `mapstructure:"upload" json:"upload"`
	Features   []string      `mapstructure:"features" json:"features"`
}

// Watermark holds the default placement applied when a brand kit does
// not override it.
type Watermark struct {
	Gravity string `mapstructure:"gravity" json:"gravity"`
	Width   int    `mapstructure:"width" json:"width"`
	Opacity int    `mapstructure:"opacity" json:"opacity"`
	OffsetX int    `mapstructure:"offsetX" json:"offset_x"`
	OffsetY int    `mapstructure:"offsetY" json:"offset_y"`
}

// Catalog is the full set of plans plus platform-wide media defaults.
type Catalog struct {
	Plans        []Plan            `mapstructure:"plans" json:"plans"`
	AspectRatios map[string]string `mapstructure:"aspectRatios" json:"aspect_ratios"`
	Watermark    Watermark         `mapstructure:"watermark" json:"watermark"`
}

// Get returns the plan with the given ID.
func (c Catalog) Get(id ID) (Plan, error) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

// Default returns the plan new organizations start on.
func (c Catalog) Default() Plan {
	p, err := c.Get(Free)
	if err != nil {
		// Validate guarantees the free plan exists.
		panic("plan catalog missing free plan")
	}
	return p
}

// AspectRatio returns the aspect ratio configured for a social platform.
func (c Catalog) AspectRatio(platform string) (string, bool) {
	ratio, ok := c.AspectRatios[platform]
	return ratio, ok
}

// Validate checks structural invariants of the catalog.
func Validate(c Catalog) error {
	if len(c.Plans) == 0 {
		return errors.New("catalog has no plans")
	}
	seen := make(map[ID]struct{}, len(c.Plans))
	for _, p := range c.Plans {
		if p.ID == "" {
			return errors.New("plan with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return errors.New("duplicate plan id: " + string(p.ID))
		}
		seen[p.ID] = struct{}{}
		if p.PriceCents < 0 {
			return errors.New("negative price on plan " + string(p.ID))
		}
		if p.Credits.Video < 0 || p.Credits.Image < 0 {
			return errors.New("negative credit allowance on plan " + string(p.ID))
		}
		if p.StorageGB <= 0 {
			return errors.New("non-positive storage on plan " + string(p.ID))
		}
		if p.Limits.BrandKits <= 0 || p.Limits.TransformsPerVideo <= 0 || p.Limits.Users <= 0 {
			return errors.New("non-positive limit on plan " + string(p.ID))
		}
	}
	if _, ok := seen[Free]; !ok {
		return errors.New("catalog missing free plan")
	}
	return nil
}
