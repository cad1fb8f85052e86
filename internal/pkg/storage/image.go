package storage

import (
	"bufio"
	"errors"
	"io"
	"net/http"
)

var ErrUnsupportedImage = errors.New("storage: unsupported image type")

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// SniffImage inspects the first bytes of r and reports its content type and
// file extension. The returned reader still yields the whole stream.
func SniffImage(r io.Reader) (io.Reader, string, string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", "", err
	}

	ct := http.DetectContentType(head)
	ext, ok := imageExt[ct]
	if !ok {
		return nil, "", "", ErrUnsupportedImage
	}
	return br, ct, ext, nil
}
