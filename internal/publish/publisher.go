package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrStorage wraps every failure to persist a poster or resolve its URL.
var ErrStorage = errors.New("storage failed")

// Publisher persists a generated poster under name and returns a URL the
// client can fetch it from.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) (string, error)
}

// NewFilename returns "{unix millis}-{uuid v4}.jpeg".
func NewFilename(t time.Time) string {
	return fmt.Sprintf("%d-%s.jpeg", t.UnixMilli(), uuid.NewString())
}
