package session

import (
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/discord"
	"github.com/foxseedlab/jimakun/internal/repository"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/foxseedlab/jimakun/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		opener := do.MustInvoke[audio.Opener](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		dc := do.MustInvoke[discord.Client](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewRunner(cfg, repo, opener, stt, dc, wh), nil
	})
}
