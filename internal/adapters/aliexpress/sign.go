package aliexpress

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Sign computes the gateway request signature: the secret wraps the
// concatenation of every key+value pair in ascending key order, and the MD5
// digest is hex-encoded uppercase.
func Sign(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(secret)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(secret)

	sum := md5.Sum([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// commonParams returns the parameters every gateway call carries
func commonParams(appKey, method string, now time.Time) map[string]string {
	return map[string]string{
		"app_key":     appKey,
		"method":      method,
		"timestamp":   now.Format(timestampLayout),
		"format":      "json",
		"v":           "2.0",
		"sign_method": "md5",
	}
}
