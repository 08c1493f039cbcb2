package blob

import (
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

func uploadFailed(err error, msg, path string) error {
	return goerr.Wrap(errors.Join(model.ErrImageUploadFailed, err), msg, goerr.V("path", path))
}

// objectPath extracts the object path of ref under base. The boolean is false
// when ref does not point below base.
func objectPath(base, ref string) (string, bool) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(ref, prefix)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", false
	}
	return path, true
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
