package render

import (
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/skip2/go-qrcode"

	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

// Viewport 描述页面缩放到容器宽度后的尺寸。
type Viewport struct {
	Scale  float64 `json:"scale"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Fit 按容器宽度等比缩放 A4 页面。
func Fit(containerWidth float64) Viewport {
	if containerWidth <= 0 {
		return Viewport{}
	}
	scale := containerWidth / pagination.A4Width
	return Viewport{Scale: scale, Width: containerWidth, Height: pagination.A4Height * scale}
}

const qrSize = 144

// WhatsAppQR 返回指向 wa.me 链接的二维码 data URL；号码无效时返回空值。
func WhatsAppQR(phone string) (template.URL, error) {
	link := resume.WhatsAppLink(phone)
	if link == "" {
		return "", nil
	}
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode whatsapp qr: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
