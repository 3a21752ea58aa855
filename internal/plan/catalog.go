package plan

// DefaultCatalog returns the built-in plan catalog used when no catalog
// file is mounted.
func DefaultCatalog() Catalog {
	return Catalog{
		Plans: []Plan{
			{
				ID:         Free,
				Name:       "Free",
				PriceCents: 0,
				Credits:    Credits{Video: 5, Image: 20},
				StorageGB:  1,
				Limits:     Limits{BrandKits: 1, TransformsPerVideo: 1, Users: 1},
				Upload:     UploadProfile{Quality: "auto", MaxHeight: 720, CropMode: "limit"},
				Features:   []string{"Basic video compression", "Social media image formats", "1 user"},
			},
			{
				ID:         Creator,
				Name:       "Creator",
				PriceCents: 1999,
				Credits:    Credits{Video: 20, Image: 100},
				StorageGB:  10,
				Limits:     Limits{BrandKits: 1, TransformsPerVideo: 3, Users: 1},
				Upload:     UploadProfile{Quality: "80", MaxHeight: 1080, CropMode: "limit"},
				Features:   []string{"Advanced compression", "All social platforms", "Brand kit", "Analytics"},
			},
			{
				ID:         Business,
				Name:       "Business",
				PriceCents: 4999,
				Credits:    Credits{Video: 100, Image: 500},
				StorageGB:  50,
				Limits:     Limits{BrandKits: 3, TransformsPerVideo: 10, Users: 5},
				Upload:     UploadProfile{Quality: "90", MaxHeight: 1440, CropMode: "limit"},
				Features:   []string{"Team collaboration", "Multiple brand kits", "Advanced analytics", "Priority processing"},
			},
			{
				ID:         Agency,
				Name:       "Agency",
				PriceCents: 12999,
				Credits:    Credits{Video: 500, Image: 2000},
				StorageGB:  250,
				Limits:     Limits{BrandKits: 10, TransformsPerVideo: 50, Users: 15},
				Upload:     UploadProfile{Quality: "100", MaxHeight: 2160, CropMode: "limit"},
				Features:   []string{"Unlimited users", "White-label exports", "API access", "Dedicated support"},
			},
		},
		AspectRatios: map[string]string{
			"instagram": "1:1",
			"tiktok":    "9:16",
			"youtube":   "16:9",
			"facebook":  "16:9",
			"twitter":   "16:9",
			"linkedin":  "1.91:1",
		},
		Watermark: Watermark{
			Gravity: "south_east",
			Width:   100,
			Opacity: 70,
			OffsetX: 20,
			OffsetY: 20,
		},
	}
}
