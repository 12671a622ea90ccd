package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/yigit/lms/internal/app/auth"
	"github.com/yigit/lms/internal/app/certification"
	"github.com/yigit/lms/internal/app/controllers"
	"github.com/yigit/lms/internal/app/models"
	"github.com/yigit/lms/internal/app/models/dto"
	"github.com/yigit/lms/internal/app/repositories/memory"
	"github.com/yigit/lms/internal/app/services"
	"github.com/yigit/lms/internal/middleware"
	"github.com/yigit/lms/internal/pkg/auth"
	"github.com/yigit/lms/internal/pkg/cache"
	"github.com/yigit/lms/internal/pkg/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type testServer struct {
	router  *gin.Engine
	db      *memory.DB
	jwt     *auth.JWTService
	batches *services.BatchService

	student  *models.User
	admin    *models.User
	courseID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	db := memory.New()

	student := &models.User{Email: "maria@example.com", Name: "Maria Silva"}
	admin := &models.User{Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, db.Users().Create(ctx, student))
	require.NoError(t, db.Users().Create(ctx, admin))

	duration := "8h"
	course := &models.Course{Title: "Distributed Systems", Duration: &duration}
	require.NoError(t, db.Courses().Create(ctx, course))

	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, RefreshTokenExp: 24 * time.Hour, TokenIssuer: "lms-test"})
	authz := appauth.NewAuthorizationService(db.Users())

	publisher := services.NewArtifactPublisher(db.Certificates(), db.Users(), nil, nil, nil, "https://lms.example.com", logger)
	issuer := certification.NewIssuer(db.Certificates(), db.Enrollments(),
		certification.WithSnapshotResolver(services.NewSnapshotResolver(db.Users(), db.Courses())),
		certification.WithAfterIssue(publisher.AfterIssue),
	)
	certSvc := services.NewCertificateService(services.CertificateServiceDeps{
		Certificates: db.Certificates(),
		Issuer:       issuer,
		Authz:        authz,
		Cache:        cache.NewMemoryCache(0),
		VerifyURL:    publisher.VerifyURL,
	}, logger)
	batchSvc := services.NewBatchService(certification.NewCoordinator(issuer, logger), db.Enrollments(), nil, nil, logger)
	hub := websocket.NewHub(logger)

	router := gin.New()
	SetupRouter(router, Controllers{
		Auth:        controllers.NewAuthController(services.NewAuthService(db.Users(), db.Tokens(), jwtSvc, logger), authz, logger),
		Certificate: controllers.NewCertificateController(certSvc, logger),
		Enrollment:  controllers.NewEnrollmentController(services.NewEnrollmentService(db.Enrollments(), db.Courses(), authz, logger), logger),
		Batch:       controllers.NewBatchController(batchSvc, logger),
		Course:      controllers.NewCourseController(services.NewCourseService(db.Courses(), authz, logger), logger),
	}, middleware.NewAuthMiddleware(jwtSvc), websocket.NewHandler(hub, batchSvc, middleware.HandleAPIError, logger))

	return &testServer{router: router, db: db, jwt: jwtSvc, batches: batchSvc, student: student, admin: admin, courseID: course.ID}
}

func (s *testServer) token(t *testing.T, u *models.User) string {
	t.Helper()
	pair, err := s.jwt.GenerateTokenPair(u)
	require.NoError(t, err)
	return pair.AccessToken
}

func (s *testServer) enroll(t *testing.T, u *models.User, progress int) {
	t.Helper()
	_, err := s.db.Enrollments().Create(context.Background(), &models.Enrollment{UserID: u.ID, CourseID: s.courseID, Progress: &progress})
	require.NoError(t, err)
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/auth/register", "", dto.RegisterRequest{Email: "new@example.com", Password: "s3cret-pass", Name: "New Student"})
	require.Equal(t, http.StatusCreated, code)
	var registered dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.NotEmpty(t, registered.Token.AccessToken)
	assert.Equal(t, "student", registered.User.Role)

	code, _ = s.do(t, http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: "new@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodGet, "/auth/user", registered.Token.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "new@example.com", me.Email)

	code, _ = s.do(t, http.MethodGet, "/auth/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/auth/refresh", "", dto.RefreshTokenRequest{RefreshToken: registered.Token.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	var refreshed dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEqual(t, registered.Token.RefreshToken, refreshed.Token.RefreshToken)

	code, _ = s.do(t, http.MethodGet, "/auth/admin/users", registered.Token.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, "/auth/admin/users", s.token(t, s.admin), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCertificateRoutes_IssueAndCheck(t *testing.T) {
	s := newTestServer(t)
	s.enroll(t, s.student, 100)
	token := s.token(t, s.student)
	checkPath := "/api/certificates/check?user_id=" + s.student.ID + "&course_id=" + s.courseID

	code, env := s.do(t, http.MethodGet, checkPath, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))

	req := dto.CreateCertificateRequest{UserID: s.student.ID, CourseID: s.courseID}
	code, env = s.do(t, http.MethodPost, "/api/certificates", token, req)
	require.Equal(t, http.StatusCreated, code)
	var issued dto.IssueCertificateResponse
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	assert.False(t, issued.Duplicate)
	assert.Equal(t, "Maria Silva", issued.Certificate.UserName)
	assert.Equal(t, "Distributed Systems", issued.Certificate.CourseName)

	code, env = s.do(t, http.MethodPost, "/api/certificates", token, req)
	require.Equal(t, http.StatusOK, code)
	var again dto.IssueCertificateResponse
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.True(t, again.Duplicate)
	assert.Equal(t, issued.Certificate.ID, again.Certificate.ID)

	code, env = s.do(t, http.MethodGet, checkPath, token, nil)
	require.Equal(t, http.StatusOK, code)
	var found models.Certificate
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Equal(t, issued.Certificate.RegistrationNumber, found.RegistrationNumber)

	code, _ = s.do(t, http.MethodGet, "/api/certificates/"+issued.Certificate.ID, token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCertificateRoutes_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.student)
	req := dto.CreateCertificateRequest{UserID: s.student.ID, CourseID: s.courseID}

	code, env := s.do(t, http.MethodPost, "/api/certificates", token, req)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, dto.ErrorCodeNotEnrolled, env.Error.Code)

	s.enroll(t, s.student, 60)
	code, env = s.do(t, http.MethodPost, "/api/certificates", token, req)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, dto.ErrorCodeNotEligible, env.Error.Code)

	code, _ = s.do(t, http.MethodPost, "/api/certificates", token, dto.CreateCertificateRequest{UserID: "not-a-uuid", CourseID: s.courseID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/certificates", token, dto.CreateCertificateRequest{UserID: s.admin.ID, CourseID: s.courseID})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/certificates/recent", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/certificates", "", req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEnrollmentRoutes_ProgressNeverDecreases(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, s.student)

	code, _ := s.do(t, http.MethodPost, "/api/enrollments", token, dto.EnrollRequest{CourseID: s.courseID})
	require.Equal(t, http.StatusCreated, code)

	progress := func(v int) int {
		code, _ := s.do(t, http.MethodPut, "/api/enrollments/progress", token, dto.UpdateProgressRequest{UserID: s.student.ID, CourseID: s.courseID, Progress: &v})
		return code
	}
	assert.Equal(t, http.StatusOK, progress(40))
	assert.Equal(t, http.StatusConflict, progress(30))
	assert.Equal(t, http.StatusBadRequest, progress(101))

	code, env := s.do(t, http.MethodGet, "/api/enrollments/"+s.student.ID+"/"+s.courseID, token, nil)
	require.Equal(t, http.StatusOK, code)
	var got models.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.NotNil(t, got.Progress)
	assert.Equal(t, 40, *got.Progress)
}

func TestBatchRoutes(t *testing.T) {
	s := newTestServer(t)
	s.enroll(t, s.student, 100)
	adminToken := s.token(t, s.admin)

	code, _ := s.do(t, http.MethodPost, "/api/certificates/batch", s.token(t, s.student), dto.StartBatchRequest{CourseID: s.courseID})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/api/certificates/batch", adminToken, dto.StartBatchRequest{CourseID: s.courseID, OnlyEligible: true})
	require.Equal(t, http.StatusAccepted, code)
	var accepted dto.StartBatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	assert.Equal(t, 1, accepted.Total)
	s.batches.Wait()

	code, env = s.do(t, http.MethodGet, "/api/certificates/batch/"+accepted.JobID, adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var job dto.BatchJobResponse
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, services.BatchStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Progress.Succeeded)
	assert.Equal(t, 1, s.db.Certificates().Count())

	code, _ = s.do(t, http.MethodDelete, "/api/certificates/batch/"+accepted.JobID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodGet, "/api/certificates/batch/unknown", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCourseRoutes(t *testing.T) {
	s := newTestServer(t)
	studentToken := s.token(t, s.student)
	adminToken := s.token(t, s.admin)

	code, _ := s.do(t, http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/courses", studentToken, dto.CreateCourseRequest{Title: "Compilers"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/courses", adminToken, dto.CreateCourseRequest{Duration: "12h"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodPost, "/api/courses", adminToken, dto.CreateCourseRequest{Title: " Compilers ", Duration: "12h", Instructor: "Ada"})
	require.Equal(t, http.StatusCreated, code)
	var created models.Course
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Compilers", created.Title)
	assert.Equal(t, 12, created.Hours())
	assert.Nil(t, created.Description)

	code, env = s.do(t, http.MethodGet, "/api/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	var courses []models.Course
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 2)
	assert.Equal(t, "Compilers", courses[0].Title)
	assert.Equal(t, "Distributed Systems", courses[1].Title)

	code, env = s.do(t, http.MethodGet, "/api/courses/"+s.courseID, studentToken, nil)
	require.Equal(t, http.StatusOK, code)
	var course models.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, 8, course.Hours())

	code, _ = s.do(t, http.MethodGet, "/api/courses/unknown", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
