package balance

import (
	"bytes"
	"fmt"
	"strings"

	"sessionbot/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// QRCardStyle sizes the recharge card
type QRCardStyle struct {
	Width        int
	QRSize       int
	HeaderHeight int
	FooterHeight int
}

// QRCardGenerator renders a payment link as a scannable PNG card
type QRCardGenerator struct {
	style QRCardStyle
}

func NewQRCardGenerator() *QRCardGenerator {
	return &QRCardGenerator{
		style: QRCardStyle{
			Width:        360,
			QRSize:       300,
			HeaderHeight: 56,
			FooterHeight: 40,
		},
	}
}

// Render draws the QR code for url under a header showing amount in paise
func (g *QRCardGenerator) Render(url string, amount int64) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("payment link has no URL")
	}

	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	code.DisableBorder = true

	height := g.style.HeaderHeight + g.style.QRSize + g.style.FooterHeight
	dc := gg.NewContext(g.style.Width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	titleFace, err := loadFont(gobold.TTF, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(titleFace)
	dc.SetRGB(0.1, 0.1, 0.15)
	center := float64(g.style.Width) / 2
	dc.DrawStringAnchored("Pay "+rupees(amount), center, float64(g.style.HeaderHeight)/2, 0.5, 0.5)

	dc.DrawImage(code.Image(g.style.QRSize), (g.style.Width-g.style.QRSize)/2, g.style.HeaderHeight)

	footerFace, err := loadFont(goregular.TTF, 13)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(footerFace)
	dc.SetRGB(0.4, 0.4, 0.45)
	footerY := float64(g.style.HeaderHeight+g.style.QRSize) + float64(g.style.FooterHeight)/2
	dc.DrawStringAnchored("Scan with any UPI app", center, footerY, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// rupees spells the amount with "INR" because the Go fonts have no rupee glyph
func rupees(amount int64) string {
	return "INR " + strings.TrimPrefix(models.FormatINR(amount), "₹")
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
