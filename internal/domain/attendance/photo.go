package attendance

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// encodeDataURL wraps raw JPEG/PNG bytes as a base64 data URL, the
// inline payload form the backend stores for captured frames.
func encodeDataURL(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL extracts the raw image bytes from an inline payload.
func DecodeDataURL(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, ",")
	if !strings.HasPrefix(dataURL, "data:") || idx < 0 {
		return nil, fmt.Errorf("not a data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline payload: %w", err)
	}
	return raw, nil
}
