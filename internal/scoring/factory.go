package scoring

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Model names accepted by New
const (
	ModelPopularity = "popularity"
	ModelRandom     = "random"
	ModelLinear     = "linear"
	ModelHTTP       = "http"
)

// Options selects and configures a model
type Options struct {
	Model     string
	Seed      int64
	BaseURL   string
	APIKey    string
	HTTP      HTTPClientConfig
	Weights   map[string]float64
	CacheTTL  time.Duration
	CacheSize int
}

// New builds the model named in opts, wrapped in a score cache when a cache size is set
func New(opts Options, log *logrus.Logger) (Model, error) {
	var m Model
	switch opts.Model {
	case ModelPopularity:
		m = PopularityModel{}
	case ModelRandom:
		m = RandomModel{Seed: opts.Seed}
	case ModelLinear:
		weights := opts.Weights
		if len(weights) == 0 {
			weights = DefaultFeatureWeights()
		}
		m = FeatureModel{Label: ModelLinear, Weights: weights}
	case ModelHTTP:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("http model requires a base url")
		}
		m = NewHTTPModel(opts.BaseURL, opts.APIKey, ModelHTTP, opts.HTTP, log)
	default:
		return nil, fmt.Errorf("unknown scoring model %q", opts.Model)
	}

	if opts.CacheSize > 0 && opts.CacheTTL > 0 {
		m = NewCachedModel(m, NewScoreCache(opts.CacheTTL, opts.CacheSize))
	}
	return m, nil
}
