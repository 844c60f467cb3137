package platform

import (
	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/registry"
)

// NewFactory returns a factory with all built-in platforms
// registered. Registration is explicit so the set of available
// platforms is visible in one place.
func NewFactory(log zerolog.Logger) *registry.Factory[Platform] {
	f := registry.NewFactory[Platform]("platform", log)
	f.Register(TypeReady, func() Platform { return NewReadyPlatform() })
	return f
}
