package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示头像未通过病毒扫描。
var ErrInfected = errors.New("malicious file detected")

// PhotoScanner 扫描头像图片。
type PhotoScanner interface {
	Scan(ctx context.Context, content []byte) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 扫描内容。
type ClamdScanner struct {
	addr string
}

func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{addr: addr}
}

func (s *ClamdScanner) Scan(ctx context.Context, content []byte) error {
	client := clamd.NewClamd(s.addr)

	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := client.ScanStream(bytes.NewReader(content), abortChan)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-scanChan:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, result.Description)
			default:
				return fmt.Errorf("clamd %s: %s", result.Status, result.Description)
			}
		}
	}
}

// decodePhoto 解析 data:image/...;base64 形式的头像。
func decodePhoto(dataURL string) ([]byte, error) {
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("profile picture must be a base64 image data url")
	}
	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode profile picture: %w", err)
	}
	return content, nil
}
