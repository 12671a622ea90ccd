package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pngWidth  = 1600
	pngHeight = 1130
)

var (
	navy  = color.NRGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 0xff}
	paper = color.NRGBA{R: 0xfb, G: 0xf9, B: 0xf4, A: 0xff}
	muted = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// PNGRenderer draws certificates with the embedded Go fonts, so no font files are needed.
type PNGRenderer struct {
	title, name, course, body, small font.Face
}

// NewPNGRenderer parses the embedded fonts.
func NewPNGRenderer() (*PNGRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}

	return &PNGRenderer{
		title:  truetype.NewFace(bold, &truetype.Options{Size: 72}),
		name:   truetype.NewFace(bold, &truetype.Options{Size: 60}),
		course: truetype.NewFace(italic, &truetype.Options{Size: 44}),
		body:   truetype.NewFace(regular, &truetype.Options{Size: 30}),
		small:  truetype.NewFace(regular, &truetype.Options{Size: 22}),
	}, nil
}

// Render draws the certificate and encodes it as PNG.
func (r *PNGRenderer) Render(data CertificateData) ([]byte, error) {
	dc := gg.NewContext(pngWidth, pngHeight)
	w, h := float64(pngWidth), float64(pngHeight)
	cx := w / 2

	dc.SetColor(paper)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(navy)
	dc.SetLineWidth(14)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, w-140, h-140)
	dc.Stroke()

	dc.SetFontFace(r.title)
	dc.DrawStringAnchored("Certificate of Completion", cx, 220, 0.5, 0.5)

	dc.SetColor(muted)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored("This certifies that", cx, 360, 0.5, 0.5)

	dc.SetColor(color.Black)
	dc.SetFontFace(r.name)
	dc.DrawStringAnchored(data.UserName, cx, 460, 0.5, 0.5)
	nameWidth, _ := dc.MeasureString(data.UserName)
	dc.SetLineWidth(2)
	dc.DrawLine(cx-nameWidth/2-40, 510, cx+nameWidth/2+40, 510)
	dc.Stroke()

	dc.SetColor(muted)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored("has successfully completed the course", cx, 590, 0.5, 0.5)

	dc.SetColor(navy)
	dc.SetFontFace(r.course)
	dc.DrawStringWrapped(data.CourseName, cx, 680, 0.5, 0.5, w-400, 1.3, gg.AlignCenter)

	dc.SetColor(muted)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored(fmt.Sprintf("Workload: %d hours", data.CourseHours), cx, 790, 0.5, 0.5)

	issued := "Issued on " + data.IssueDate.Format(dateLayout)
	if data.ExpiryDate != nil {
		issued += "  |  Valid until " + data.ExpiryDate.Format(dateLayout)
	}
	dc.SetFontFace(r.small)
	dc.DrawStringAnchored(issued, cx, 930, 0.5, 0.5)
	dc.DrawStringAnchored("Registration number "+data.RegistrationNumber, cx, 970, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
