package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/lms/internal/app/models"
)

func sampleData() CertificateData {
	return FromCertificate(&models.Certificate{
		UserName:           "Ana <Silva>",
		CourseName:         "Concurrency in Go",
		CourseHours:        12,
		IssueDate:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		RegistrationNumber: "CERT-M7ZK2Q1A-7XK2P",
	}, "https://lms.example.com/certificates/1")
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleData())
	require.NoError(t, err)

	assert.Contains(t, out, "Ana &lt;Silva&gt;")
	assert.Contains(t, out, "Concurrency in Go")
	assert.Contains(t, out, "12 hours")
	assert.Contains(t, out, "March 14, 2025")
	assert.Contains(t, out, "CERT-M7ZK2Q1A-7XK2P")
	assert.NotContains(t, out, "valid until")
}

func TestHTML_WithExpiry(t *testing.T) {
	data := sampleData()
	expiry := time.Date(2027, 3, 14, 0, 0, 0, 0, time.UTC)
	data.ExpiryDate = &expiry

	out, err := HTML(data)
	require.NoError(t, err)
	assert.Contains(t, out, "valid until March 14, 2027")
}

func TestPNG(t *testing.T) {
	r, err := NewPNGRenderer()
	require.NoError(t, err)

	raw, err := r.Render(sampleData())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, pngWidth, img.Bounds().Dx())
	assert.Equal(t, pngHeight, img.Bounds().Dy())
}
