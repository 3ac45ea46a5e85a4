package source

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cloudbox/internal/infra/config"
)

// NewProvidersFromConfig creates the configured session sources, keyed by
// provider name. spotify may be nil when no spotify backend is configured.
func NewProvidersFromConfig(cfg *config.Config, soundcloud SoundCloudClient, spotify SpotifyClient) (map[string]Provider, error) {
	providers := make(map[string]Provider)

	for i, scfg := range cfg.Sources {
		var provider Provider
		var err error
		switch scfg.Type {
		case "favorites":
			provider = NewFavoritesProvider(soundcloud)

		case "stream":
			provider = NewStreamProvider(soundcloud)

		case "playlist":
			if spotify == nil {
				return nil, errors.Newf("playlist source requires the spotify backend (source index %d)", i)
			}
			provider, err = NewPlaylistProvider(spotify, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		if _, ok := providers[provider.Name()]; ok {
			return nil, errors.Newf("duplicate source: %s", provider.Name())
		}
		providers[provider.Name()] = provider

		zlog.Info().Msgf("registered session source: index=%d type=%s", i+1, scfg.Type)
	}

	return providers, nil
}
