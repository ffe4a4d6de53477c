package upstream

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

// decompress inflates br and gzip bodies the transport left encoded.
// resty already inflates some gzip bodies itself, so gzip is only
// handled when the payload still carries the gzip magic bytes.
func decompress(_ *resty.Client, resp *resty.Response) error {
	encoding := resp.Header().Get("Content-Encoding")
	body := resp.Body()
	if encoding == "" || len(body) == 0 {
		return nil
	}

	var reader io.Reader
	switch encoding {
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	default:
		return nil
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	resp.SetBody(out)
	resp.Header().Del("Content-Encoding")
	return nil
}
