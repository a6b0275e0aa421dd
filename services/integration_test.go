package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/novafs/lms-api/database"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/apperr"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/novafs/lms-api/utils/validation"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway stands in for the Midtrans Snap API
type fakeGateway struct {
	err    error
	orders []string
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, orderID string, amount int64, email string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.orders = append(g.orders, orderID)
	return "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + orderID, nil
}

// setupTestDB connects to the database named by TEST_DATABASE_URL and
// resets every table. Skipped unless RUN_INTEGRATION_TESTS=true.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=lms_test port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	err = db.Exec("TRUNCATE users, categories, courses, course_contents, course_students, " +
		"transactions, jwt_token_blacklist, cron_job_logs RESTART IDENTITY CASCADE").Error
	if err != nil {
		t.Fatalf("Failed to reset tables: %v", err)
	}

	return db
}

type fixture struct {
	db       *gorm.DB
	store    *fakeMediaStore
	courses  *CourseService
	students *StudentService
	manager  model.User
	category model.Category
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	store := &fakeMediaStore{}
	validator := validation.NewValidator()

	f := &fixture{
		db:       db,
		store:    store,
		courses:  NewCourseService(db, validator, store, nil),
		students: NewStudentService(db, validator, store),
	}

	f.manager = model.User{Name: "Manager One", Email: "manager@example.com", Photo: model.DefaultPhoto, PasswordHash: "x", Role: model.RoleManager}
	if err := db.Create(&f.manager).Error; err != nil {
		t.Fatalf("create manager: %v", err)
	}
	f.category = model.Category{Name: "Programming"}
	if err := db.Create(&f.category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return f
}

func (f *fixture) createCourse(t *testing.T, name string) *model.Course {
	t.Helper()
	course, err := f.courses.CreateCourse(context.Background(), f.manager.ID, CourseRequest{
		Name:        name,
		CategoryID:  f.category.ID,
		Description: "A course used by the integration tests",
		Tagline:     "Learn it well",
	}, imageFile("cover.png"))
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	return course
}

func (f *fixture) createStudent(t *testing.T, email string) *StudentDetail {
	t.Helper()
	student, err := f.students.CreateStudent(context.Background(), f.manager.ID, CreateStudentRequest{
		Name:     "Student " + email,
		Email:    email,
		Password: "secret",
	}, imageFile("avatar.png"))
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	return student
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(value).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSignUpRollsBackOnGatewayError(t *testing.T) {
	db := setupTestDB(t)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "lms-api"})
	gateway := &fakeGateway{err: errors.New("midtrans unavailable")}
	service := NewAuthService(db, validation.NewValidator(), jwtManager, gateway)

	_, err := service.SignUp(context.Background(), SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "secret"})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	if n := countRows(t, db, &model.User{}); n != 0 {
		t.Errorf("users = %d, want 0 after rollback", n)
	}
	if n := countRows(t, db, &model.Transaction{}); n != 0 {
		t.Errorf("transactions = %d, want 0 after rollback", n)
	}
}

func TestSignUpPaymentUnlocksSignIn(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "lms-api"})
	gateway := &fakeGateway{}
	authService := NewAuthService(db, validation.NewValidator(), jwtManager, gateway)
	paymentService := NewPaymentService(db, PaymentConfig{})

	result, err := authService.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "Ada@Example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if result.MidtransPaymentURL == "" || len(gateway.orders) != 1 {
		t.Fatalf("expected a payment url and one order, got %+v %v", result, gateway.orders)
	}

	var transaction model.Transaction
	if err := db.First(&transaction, "id = ?", gateway.orders[0]).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if transaction.Price != model.SignUpPrice || transaction.Status != model.TransactionPending {
		t.Errorf("transaction = %+v, want pending %d", transaction, model.SignUpPrice)
	}

	_, err = authService.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "secret"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("duplicate email: expected validation error, got %v", err)
	}

	_, err = authService.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "secret"})
	if appErr, ok := apperr.As(err); !ok || appErr.Message != MsgUserNotVerified {
		t.Fatalf("expected %q, got %v", MsgUserNotVerified, err)
	}

	_, err = authService.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "wrong"})
	if appErr, ok := apperr.As(err); !ok || appErr.Message != MsgInvalidCredential {
		t.Errorf("expected %q, got %v", MsgInvalidCredential, err)
	}

	_, err = authService.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "secret"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	payload := []byte(fmt.Sprintf(`{"order_id":%q,"transaction_status":"pending","payment_type":"bank_transfer"}`, transaction.ID))
	if err := paymentService.HandleNotification(ctx, "settlement", payload); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	if err := db.First(&transaction, "id = ?", transaction.ID).Error; err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if transaction.Status != model.TransactionSuccess || transaction.GatewayStatus != "settlement" {
		t.Errorf("transaction = %+v, want success/settlement", transaction)
	}

	signIn, err := authService.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("SignIn after payment: %v", err)
	}
	if signIn.Role != string(model.RoleManager) || signIn.Token == "" {
		t.Errorf("unexpected sign-in result %+v", signIn)
	}
}

func TestPaymentNotificationUnknownOrder(t *testing.T) {
	db := setupTestDB(t)
	service := NewPaymentService(db, PaymentConfig{})

	err := service.HandleNotification(context.Background(), "settlement", []byte(`{"order_id":"does-not-exist"}`))
	if err != nil {
		t.Errorf("unknown order should be ignored, got %v", err)
	}
}

func TestStudentSignInIsNotPaymentGated(t *testing.T) {
	f := newFixture(t)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "lms-api"})
	authService := NewAuthService(f.db, validation.NewValidator(), jwtManager, &fakeGateway{})

	f.createStudent(t, "student@example.com")

	result, err := authService.SignIn(context.Background(), SignInRequest{Email: "student@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if result.Role != string(model.RoleStudent) {
		t.Errorf("role = %q, want student", result.Role)
	}
}

func TestEnrollmentDrivesVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course := f.createCourse(t, "Go for managers")
	student := f.createStudent(t, "learner@example.com")
	studentActor := Actor{ID: student.ID, Role: model.RoleStudent}

	if _, err := f.courses.GetCourse(ctx, studentActor, course.ID, false); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unenrolled student should not see the course, got %v", err)
	}

	req := EnrollmentRequest{StudentID: student.ID}
	for i := 0; i < 2; i++ {
		if err := f.courses.AddStudent(ctx, f.manager.ID, course.ID, req); err != nil {
			t.Fatalf("AddStudent #%d: %v", i+1, err)
		}
	}
	if n := countRows(t, f.db, &model.CourseStudent{}); n != 1 {
		t.Errorf("enrollments = %d, want 1 after enrolling twice", n)
	}

	roster, err := f.courses.GetCourseStudents(ctx, f.manager.ID, course.ID)
	if err != nil {
		t.Fatalf("GetCourseStudents: %v", err)
	}
	if len(roster.Students) != 1 || roster.Students[0].ID != student.ID {
		t.Errorf("roster = %+v", roster)
	}

	if _, err := f.courses.GetCourse(ctx, studentActor, course.ID, false); err != nil {
		t.Errorf("enrolled student should see the course, got %v", err)
	}

	myCourses, err := f.students.ListStudentCourses(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListStudentCourses: %v", err)
	}
	if len(myCourses) != 1 || myCourses[0].Category.Name != "Programming" || myCourses[0].ThumbnailURL != course.Thumbnail {
		t.Errorf("student courses = %+v", myCourses)
	}

	list, err := f.courses.ListCourses(ctx, f.manager.ID)
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(list) != 1 || list[0].TotalStudents != 1 {
		t.Errorf("courses = %+v, want one course with one student", list)
	}

	if err := f.courses.RemoveStudent(ctx, f.manager.ID, course.ID, req); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}
	if _, err := f.courses.GetCourse(ctx, studentActor, course.ID, false); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unenrolled student should lose access, got %v", err)
	}
}

func TestContentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, "Content course")

	_, err := f.courses.CreateContent(ctx, f.manager.ID, ContentRequest{CourseID: course.ID, Title: "Intro video", Type: model.ContentTypeVideo})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("video without youtubeId: expected validation error, got %v", err)
	}

	video, err := f.courses.CreateContent(ctx, f.manager.ID, ContentRequest{CourseID: course.ID, Title: "Intro video", Type: model.ContentTypeVideo, YoutubeID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("CreateContent video: %v", err)
	}
	text, err := f.courses.CreateContent(ctx, f.manager.ID, ContentRequest{CourseID: course.ID, Title: "Reading notes", Type: model.ContentTypeText, Text: "Read chapter one"})
	if err != nil {
		t.Fatalf("CreateContent text: %v", err)
	}

	managerActor := Actor{ID: f.manager.ID, Role: model.RoleManager}
	detail, err := f.courses.GetCourse(ctx, managerActor, course.ID, false)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if len(detail.Details) != 2 || detail.Details[0].YoutubeID != "" {
		t.Errorf("without preview details must be projected, got %+v", detail.Details)
	}

	preview, err := f.courses.GetCourse(ctx, managerActor, course.ID, true)
	if err != nil {
		t.Fatalf("GetCourse preview: %v", err)
	}
	if preview.Details[0].YoutubeID != "dQw4w9WgXcQ" {
		t.Errorf("preview should include the video id, got %+v", preview.Details[0])
	}

	if err := f.courses.DeleteContent(ctx, f.manager.ID, video.ID); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	detail, err = f.courses.GetCourse(ctx, managerActor, course.ID, false)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if len(detail.Details) != 1 || detail.Details[0].ID != text.ID {
		t.Errorf("deleted content must leave the course, got %+v", detail.Details)
	}

	if _, err := f.courses.GetContent(ctx, managerActor, video.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("deleted content lookup: expected not found, got %v", err)
	}
}

func TestCourseThumbnailReplacementAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, "Thumbnail course")
	originalKey := course.ThumbnailKey

	req := CourseRequest{Name: "Renamed course", CategoryID: f.category.ID, Description: "Still a useful description", Tagline: "New tagline"}

	if _, err := f.courses.UpdateCourse(ctx, f.manager.ID, course.ID, req, nil); err != nil {
		t.Fatalf("UpdateCourse without file: %v", err)
	}
	if len(f.store.uploads) != 1 || len(f.store.deletes) != 0 {
		t.Fatalf("update without file touched media: uploads=%v deletes=%v", f.store.uploads, f.store.deletes)
	}

	updated, err := f.courses.UpdateCourse(ctx, f.manager.ID, course.ID, req, imageFile("new-cover.png"))
	if err != nil {
		t.Fatalf("UpdateCourse with file: %v", err)
	}
	if len(f.store.uploads) != 2 || len(f.store.deletes) != 1 || f.store.deletes[0] != originalKey {
		t.Fatalf("replacement: uploads=%v deletes=%v", f.store.uploads, f.store.deletes)
	}

	student := f.createStudent(t, "roster@example.com")
	if err := f.courses.AddStudent(ctx, f.manager.ID, course.ID, EnrollmentRequest{StudentID: student.ID}); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	if err := f.courses.DeleteCourse(ctx, f.manager.ID, course.ID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if last := f.store.deletes[len(f.store.deletes)-1]; last != updated.ThumbnailKey {
		t.Errorf("deleted %q, want current thumbnail %q", last, updated.ThumbnailKey)
	}
	if n := countRows(t, f.db, &model.CourseStudent{}); n != 0 {
		t.Errorf("enrollments = %d, want 0 after course delete", n)
	}

	_, err = f.courses.UpdateCourse(ctx, f.manager.ID, course.ID, req, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("update after delete: expected not found, got %v", err)
	}
}

func TestCreateCourseUnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.courses.CreateCourse(context.Background(), f.manager.ID, CourseRequest{
		Name:        "Orphan course",
		CategoryID:  f.category.ID + 100,
		Description: "Category does not exist",
		Tagline:     "Nowhere",
	}, imageFile("cover.png"))

	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindNotFound || appErr.Message != MsgCategoryNotFound {
		t.Fatalf("expected %q, got %v", MsgCategoryNotFound, err)
	}
	if len(f.store.uploads) != 0 {
		t.Errorf("no upload expected for an unknown category, got %v", f.store.uploads)
	}
}

func TestStudentPasswordChangeRevokesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.createStudent(t, "rotate@example.com")

	_, err := f.students.UpdateStudent(ctx, f.manager.ID, student.ID, UpdateStudentRequest{
		Name:  student.Name,
		Email: student.Email,
	}, nil)
	if err != nil {
		t.Fatalf("UpdateStudent without password: %v", err)
	}

	var user model.User
	f.db.First(&user, student.ID)
	if user.TokenVersion != 0 {
		t.Errorf("token version = %d, want 0 when the password is kept", user.TokenVersion)
	}

	_, err = f.students.UpdateStudent(ctx, f.manager.ID, student.ID, UpdateStudentRequest{
		Name:     student.Name,
		Email:    student.Email,
		Password: "new-secret",
	}, nil)
	if err != nil {
		t.Fatalf("UpdateStudent with password: %v", err)
	}

	f.db.First(&user, student.ID)
	if user.TokenVersion != 1 {
		t.Errorf("token version = %d, want 1 after a password change", user.TokenVersion)
	}
	if err := auth.VerifyPassword(user.PasswordHash, "new-secret"); err != nil {
		t.Errorf("new password not stored: %v", err)
	}
}

func TestDeleteStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, "Delete student course")
	student := f.createStudent(t, "leaving@example.com")

	if err := f.courses.AddStudent(ctx, f.manager.ID, course.ID, EnrollmentRequest{StudentID: student.ID}); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	if err := f.students.DeleteStudent(ctx, f.manager.ID, student.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if n := countRows(t, f.db, &model.CourseStudent{}); n != 0 {
		t.Errorf("enrollments = %d, want 0", n)
	}
	if _, err := f.students.GetStudent(ctx, f.manager.ID, student.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	other := model.User{Name: "Other Manager", Email: "other@example.com", Photo: model.DefaultPhoto, PasswordHash: "x", Role: model.RoleManager}
	f.db.Create(&other)
	mine := f.createStudent(t, "mine@example.com")
	if err := f.students.DeleteStudent(ctx, other.ID, mine.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("another manager must not delete the student, got %v", err)
	}
}
