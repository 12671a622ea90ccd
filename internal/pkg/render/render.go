// Package render produces certificate artifacts: a printable HTML page and a PNG image.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yigit/lms/internal/app/models"
)

const dateLayout = "January 2, 2006"

// CertificateData is everything printed on a certificate.
type CertificateData struct {
	UserName           string
	CourseName         string
	CourseHours        int
	IssueDate          time.Time
	ExpiryDate         *time.Time
	RegistrationNumber string
	VerifyURL          string
}

// FromCertificate maps a stored certificate to render data.
func FromCertificate(cert *models.Certificate, verifyURL string) CertificateData {
	return CertificateData{
		UserName:           cert.UserName,
		CourseName:         cert.CourseName,
		CourseHours:        cert.CourseHours,
		IssueDate:          cert.IssueDate,
		ExpiryDate:         cert.ExpiryDate,
		RegistrationNumber: cert.RegistrationNumber,
		VerifyURL:          verifyURL,
	}
}

var htmlTemplate = template.Must(template.New("certificate").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Certificate of Completion - {{.CourseName}}</title>
<style>
body { font-family: Georgia, serif; background: #f4f1ea; margin: 0; }
.certificate { width: 1000px; margin: 40px auto; padding: 60px; background: #fff; border: 12px double #1f3a5f; text-align: center; }
h1 { font-size: 44px; color: #1f3a5f; letter-spacing: 2px; margin-bottom: 8px; }
.name { font-size: 36px; font-weight: bold; margin: 24px 0; border-bottom: 1px solid #999; display: inline-block; padding: 0 40px 8px; }
.course { font-size: 26px; font-style: italic; }
.meta { margin-top: 48px; font-size: 14px; color: #555; }
</style>
</head>
<body>
<div class="certificate">
  <h1>Certificate of Completion</h1>
  <p>This certifies that</p>
  <div class="name">{{.UserName}}</div>
  <p>has successfully completed the course</p>
  <p class="course">{{.CourseName}}</p>
  <p>with a workload of {{.CourseHours}} hours.</p>
  <div class="meta">
    <p>Issued on {{date .IssueDate}}{{with .ExpiryDate}} &middot; valid until {{date .}}{{end}}</p>
    <p>Registration number: {{.RegistrationNumber}}</p>
    {{with .VerifyURL}}<p>Verify at <a href="{{.}}">{{.}}</a></p>{{end}}
  </div>
</div>
</body>
</html>
`))

// HTML renders the printable certificate page.
func HTML(data CertificateData) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render certificate html: %w", err)
	}
	return buf.String(), nil
}
