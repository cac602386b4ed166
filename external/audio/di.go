package audio

import (
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Opener, error) {
		return NewWAVOpener(), nil
	})
}
