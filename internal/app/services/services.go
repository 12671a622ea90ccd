// Package services holds the application use cases behind the HTTP controllers.
//
// Services defined in this package:
//   - AuthService: registration, sign-in, token refresh and account administration
//   - CertificateService: certificate reads, issuance and administrative corrections
//   - EnrollmentService: enrollments and their monotonic progress
//   - CourseService: the course catalog
//   - BatchService: background certificate batches and the auto-issue sweep
//   - ArtifactPublisher: rendering, storage and notification after issuance
package services

import (
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/pkg/render"
	"github.com/yigit/lms/internal/pkg/websocket"
)

var (
	_ certification.SnapshotResolver = (*SnapshotResolver)(nil)
	_ websocket.JobSource            = (*BatchService)(nil)
	_ EventPublisher                 = (*websocket.Hub)(nil)
	_ PNGRenderer                    = (*render.PNGRenderer)(nil)
	_ BatchRunner                    = (*certification.Coordinator)(nil)
)
