package plan

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CatalogHolder serves the active plan catalog and hot-reloads it when
// the mounted catalog file changes. Invalid updates are ignored so the
// last good catalog stays in effect.
type CatalogHolder struct {
	current atomic.Value // holds Catalog
}

func NewCatalogHolder() (*CatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/cloudmedia/config")
	v.AddConfigPath("/etc/cloudmedia")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLOUDMEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	catalog := DefaultCatalog()
	if fromFile {
		if err := v.UnmarshalKey("catalog", &catalog); err != nil {
			return nil, err
		}
	}
	if err := Validate(catalog); err != nil {
		return nil, err
	}

	holder := &CatalogHolder{}
	holder.current.Store(catalog)

	if fromFile {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated Catalog
			if err := v.UnmarshalKey("catalog", &updated); err != nil {
				log.Printf("[plan-catalog] reload failed: %v", err)
				return
			}
			if err := Validate(updated); err != nil {
				log.Printf("[plan-catalog] invalid catalog ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[plan-catalog] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticHolder wraps a fixed catalog, used in tests.
func NewStaticHolder(c Catalog) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(c)
	return holder
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}
