package publish

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/youruser/posterapp/internal/util"
)

// Local writes posters into a directory that the web server serves
// under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) *Local {
	return &Local{Dir: dir, URLPrefix: urlPrefix}
}

func (l *Local) Publish(ctx context.Context, name string, data []byte) (string, error) {
	if err := util.WriteFile(l.Dir, name, data); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrStorage, name, err)
	}

	log.Ctx(ctx).Info().Str("file", name).Int("bytes", len(data)).Msg("poster written to disk")
	return path.Join("/", l.URLPrefix, name), nil
}
