package ref

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"strings"

	"github.com/riverford/durable-ref/backend"
)

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // content addressing, not a security boundary
	return hex.EncodeToString(sum[:])
}

// joinInner builds the content-addressed child inner URI for a Value
// persist: base/<hex>.<format>.
func joinInner(base, hexDigest, format string) string {
	return strings.TrimSuffix(base, "/") + "/" + hexDigest + "." + format
}

func toBackendOpts(o Options) backend.Opts {
	return backend.Opts{
		ReadOpts:    o.ReadOpts,
		WriteOpts:   o.WriteOpts,
		DeleteOpts:  o.DeleteOpts,
		SharedOpts:  o.SharedOpts,
		Credentials: o.Credentials,
		Consistent:  o.Consistent,
	}
}

func backendConditionalWriter(scheme string) (backend.ConditionalWriter, bool, error) {
	b, err := backend.Get(scheme)
	if err != nil {
		return nil, false, err
	}
	cw, ok := b.(backend.ConditionalWriter)
	return cw, ok, nil
}
